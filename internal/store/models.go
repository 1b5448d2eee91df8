package store

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

type Board struct {
	ID     int64
	UserID int64
	Name   string
}

type Column struct {
	ID       int64
	BoardID  int64
	Title    string
	Position int
}

type Card struct {
	ID       int64
	ColumnID int64
	Title    string
	Details  string
	Position int
}
