package model

// Category is a bank-assigned spending category and the folder it lives in.
type Category struct {
	Folder string `json:"folder"`
	Name   string `json:"name"`
}
