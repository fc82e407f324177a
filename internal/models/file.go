package models

import "time"

// File is the metadata document for one stored file. The GUID doubles
// as the Mongo _id and the object key holding the bytes. Ownership is
// fixed at upload; there is no transfer operation.
type File struct {
	GUID        string    `json:"file_guid"    bson:"_id"`
	OwnerLogin  string    `json:"-"            bson:"owner_login"`
	Filename    string    `json:"filename"     bson:"filename"`
	ContentType string    `json:"-"            bson:"content_type"`
	Size        int64     `json:"-"            bson:"size"`
	Public      bool      `json:"-"            bson:"public"`
	CreatedAt   time.Time `json:"-"            bson:"created_at"`
}

// FileEntry is one element of the /file_storage/all listing.
type FileEntry struct {
	Filename string `json:"filename"  bson:"filename"`
	GUID     string `json:"file_guid" bson:"_id"`
}

// DeleteRequest is the JSON body for DELETE /file_storage.
type DeleteRequest struct {
	Files []string `json:"files"`
}
