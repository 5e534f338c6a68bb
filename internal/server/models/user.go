package models

// DefaultTestCount is the number of test records seeded at registration.
const DefaultTestCount = 10

// TestRecord tracks a single test's completion state for a user.
type TestRecord struct {
	TestID int   `json:"testid"`
	Score  int64 `json:"score"`
	Passed bool  `json:"passed"`
}

// Submission is one dated test submission appended to a user's history.
type Submission struct {
	TestID int    `json:"test_id"`
	Date   string `json:"date"`
	Score  int64  `json:"score"`
}

// User is the sole persisted entity, keyed by Login. PasswordHash is never
// serialized to JSON.
type User struct {
	Login        string       `json:"login"`
	PasswordHash []byte       `json:"-"`
	Admin        bool         `json:"admin"`
	TestRecords  []TestRecord `json:"test_info"`
	Submissions  []Submission `json:"submissions,omitempty"`
	TotalScore   int64        `json:"score"`
}

// DefaultTestRecords returns the records a new user starts with: one entry per
// test id 1..DefaultTestCount, zero score, not passed.
func DefaultTestRecords() []TestRecord {
	records := make([]TestRecord, 0, DefaultTestCount)
	for id := 1; id <= DefaultTestCount; id++ {
		records = append(records, TestRecord{TestID: id})
	}
	return records
}
