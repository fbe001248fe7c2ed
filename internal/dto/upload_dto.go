package dto

// UploadResponse describes a stored image. URL is what clients put in a post's image field.
type UploadResponse struct {
	URL       string `json:"url"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
	Checksum  string `json:"checksum"`
}

// SeedReport summarizes what POST /seed created.
type SeedReport struct {
	DemoUser        string   `json:"demoUser"`
	DemoPassword    string   `json:"demoPassword"`
	UserID          string   `json:"userId"`
	PostsCreated    int      `json:"postsCreated"`
	CommentsCreated int      `json:"commentsCreated"`
	PostIDs         []string `json:"postIds"`
	AlreadySeeded   bool     `json:"alreadySeeded"`
}
