package model

import "time"

// Document is the metadata record of one uploaded notice image.
// It lives under organizations/{org}/images/{id} and is duplicated under the
// month bucket organizations/{org}/{monthIndex}/{id}.
type Document struct {
	ID            string    `json:"id" firestore:"id"`
	Organization  string    `json:"organization" firestore:"organization"`
	ImageURL      string    `json:"imageURL" firestore:"imageURL"`
	StoragePath   string    `json:"storagePath" firestore:"storagePath"`
	UploaderName  string    `json:"uploaderName" firestore:"uploaderName"`
	UploaderEmail string    `json:"uploaderEmail" firestore:"uploaderEmail"`
	UploaderUID   string    `json:"uploaderUid" firestore:"uploaderUid"`
	DateOfUpload  string    `json:"dateOfUpload" firestore:"dateOfUpload"`
	Title         string    `json:"title" firestore:"title"`
	Info          string    `json:"info" firestore:"info"`
	EventDate     string    `json:"eventDate" firestore:"eventDate"`
	MonthIndex    int       `json:"monthIndex" firestore:"monthIndex"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt"`

	// Priority is derived from the organization's selected document pointer
	// and is never persisted on the record itself.
	Priority bool `json:"priority" firestore:"-"`
}

// Extraction holds the fields recovered from OCR text.
type Extraction struct {
	Heading   string `json:"heading"`
	EventDate string `json:"eventDate"`
	Summary   string `json:"summary"`
}
