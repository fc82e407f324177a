package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// App is the interactive terminal client: a login/registration prompt
// followed by a small file-management command loop.
type App struct {
	api *API
	in  *bufio.Reader
	out io.Writer
}

func NewApp(api *API, in io.Reader, out io.Writer) *App {
	return &App{api: api, in: bufio.NewReader(in), out: out}
}

func (a *App) prompt(text string) (string, error) {
	if _, err := fmt.Fprint(a.out, text+"\n> "); err != nil {
		return "", err
	}
	line, err := a.in.ReadString('\n')
	if err != nil && !(err == io.EOF && len(line) > 0) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) promptPassword() (string, error) {
	fmt.Fprint(a.out, "Password: ")
	pw, err := readPassword()
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// signIn asks for credentials and either verifies them against the
// server or registers a new account first.
func (a *App) signIn(ctx context.Context, register bool) error {
	login, err := a.prompt("Login")
	if err != nil {
		return err
	}
	password, err := a.promptPassword()
	if err != nil {
		return err
	}
	a.api.SetCredentials(login, password)

	if register {
		if err := a.api.Register(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Account created.")
	}
	if err := a.api.Check(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", a.api.Login())
	return nil
}

func (a *App) list(ctx context.Context) error {
	entries, err := a.api.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No files.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s\t%s\n", e.GUID, e.Filename)
	}
	return nil
}

func (a *App) upload(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	guid, err := a.api.Upload(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded: %s\n", guid)
	return nil
}

func (a *App) download(ctx context.Context, guid, dest string) error {
	filename, data, err := a.api.Download(ctx, guid)
	if err != nil {
		return err
	}
	if dest == "" {
		// The filename comes from the server; keep only the base name
		// so a hostile attachment header cannot point the write
		// outside the current directory.
		dest = filepath.Base(filename)
		if dest == "." || dest == ".." || dest == string(os.PathSeparator) {
			dest = ""
		}
	}
	if dest == "" {
		dest = guid
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s (%d bytes)\n", dest, len(data))
	return nil
}

func (a *App) delete(ctx context.Context, guids []string) error {
	if err := a.api.Delete(ctx, guids); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

const usage = `Commands:
  list                     list your files
  upload <path>            upload a local file
  download <guid> [dest]   download a file by GUID
  delete <guid> [...]      delete files by GUID
  help                     show this help
  exit                     quit`

// Run drives the command loop until exit or EOF. Command errors are
// printed and the loop continues.
func (a *App) Run(ctx context.Context) error {
	for {
		mode, err := a.prompt("login or register?")
		if err != nil {
			return err
		}
		if mode != "login" && mode != "register" {
			fmt.Fprintln(a.out, "Type 'login' or 'register'.")
			continue
		}
		if err := a.signIn(ctx, mode == "register"); err != nil {
			fmt.Fprintf(a.out, "Error: %v\n", err)
			continue
		}
		break
	}

	for {
		line, err := a.prompt("")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		var cmdErr error
		switch parts[0] {
		case "list":
			cmdErr = a.list(ctx)
		case "upload":
			if len(parts) < 2 {
				cmdErr = fmt.Errorf("usage: upload <path>")
				break
			}
			cmdErr = a.upload(ctx, parts[1])
		case "download":
			if len(parts) < 2 {
				cmdErr = fmt.Errorf("usage: download <guid> [dest]")
				break
			}
			dest := ""
			if len(parts) > 2 {
				dest = parts[2]
			}
			cmdErr = a.download(ctx, parts[1], dest)
		case "delete":
			if len(parts) < 2 {
				cmdErr = fmt.Errorf("usage: delete <guid> [...]")
				break
			}
			cmdErr = a.delete(ctx, parts[1:])
		case "help":
			fmt.Fprintln(a.out, usage)
		case "exit", "quit":
			return nil
		default:
			fmt.Fprintf(a.out, "Unknown command %q, try 'help'.\n", parts[0])
		}

		if cmdErr != nil {
			fmt.Fprintf(a.out, "Error: %v\n", cmdErr)
		}
	}
}
