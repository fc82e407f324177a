package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/ndudarev/filevault/internal/models"
)

// API is a thin HTTP wrapper over the filevault server. Credentials are
// sent with every request in the raw authorization header the server
// expects: "Authorization: <login> <password>".
type API struct {
	baseURL    string
	httpClient *http.Client

	login    string
	password string
}

func NewAPI(baseURL string) *API {
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// SetCredentials stores the login/password pair used for subsequent
// requests. Nothing is verified until Check or a protected call runs.
func (c *API) SetCredentials(login, password string) {
	c.login = login
	c.password = password
}

// Login returns the login of the currently set credentials.
func (c *API) Login() string {
	return c.login
}

// checkResp reads the response body and returns an error if the status
// is not 2xx. Structured server errors ({"error","code"}) are unwrapped
// into the message.
func checkResp(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(body))
}

func (c *API) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.login != "" {
		req.Header.Set("Authorization", c.login+" "+c.password)
	}
	return c.httpClient.Do(req)
}

// Register calls POST /register with the stored credentials.
func (c *API) Register(ctx context.Context) error {
	body, _ := json.Marshal(models.RegisterRequest{
		Credentials: models.Credentials{Login: c.login, Password: c.password},
	})
	resp, err := c.do(ctx, http.MethodPost, "/register", bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkResp(resp, "/register")
}

// Check calls GET /register/check to verify the stored credentials.
func (c *API) Check(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/register/check", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkResp(resp, "/register/check")
}

// Upload sends the file as the multipart "file" part and returns the
// GUID assigned by the server.
func (c *API) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	mp := multipart.NewWriter(&buf)
	part, err := mp.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mp.Close(); err != nil {
		return "", err
	}

	resp, err := c.do(ctx, http.MethodPost, "/file_storage", &buf, mp.FormDataContentType())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkResp(resp, "/file_storage"); err != nil {
		return "", err
	}

	var result struct {
		FileGUID string `json:"file_guid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("/file_storage: decode: %w", err)
	}
	return result.FileGUID, nil
}

// Download fetches a file by GUID. The filename comes from the
// attachment header when the server provides one.
func (c *API) Download(ctx context.Context, guid string) (filename string, data []byte, err error) {
	query := url.Values{"file_guid": {guid}}
	resp, err := c.do(ctx, http.MethodGet, "/file_storage?"+query.Encode(), nil, "")
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if err := checkResp(resp, "/file_storage"); err != nil {
		return "", nil, err
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}

	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			filename = params["filename"]
		}
	}
	return filename, data, nil
}

// List calls GET /file_storage/all.
func (c *API) List(ctx context.Context) ([]models.FileEntry, error) {
	resp, err := c.do(ctx, http.MethodGet, "/file_storage/all", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkResp(resp, "/file_storage/all"); err != nil {
		return nil, err
	}

	var result struct {
		Files []models.FileEntry `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("/file_storage/all: decode: %w", err)
	}
	return result.Files, nil
}

// Delete calls DELETE /file_storage with the given GUIDs.
func (c *API) Delete(ctx context.Context, guids []string) error {
	body, _ := json.Marshal(models.DeleteRequest{Files: guids})
	resp, err := c.do(ctx, http.MethodDelete, "/file_storage", bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkResp(resp, "/file_storage")
}
