package db

type Substitution struct {
	ID                string
	Date              string
	ClassName         string
	Lesson            string
	Subject           string
	SubstituteTeacher string
	OriginalTeacher   string
	Type              string
	SubstituteOf      string
	Room              string
	Text              string
	Hash              string
	FetchedAt         int64
}

type Subscription struct {
	DeviceToken string
	Topic       string
	CreatedAt   int64
}
