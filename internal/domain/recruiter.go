package domain

type RecruiterContact struct {
	CompanyName   string
	RecruiterName string
	Role          string
	ProfileURL    string
	Source        string
}

type EmailCandidate struct {
	RecruiterName   string
	Email           string  // lowercase, syntactically valid
	ConfidenceScore float64 // 0..1
	Source          string
}
