package session

import "time"

type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "default"
	NoticeError NoticeLevel = "destructive"
)

// Notice is the single status message visible on the page. Each new notice
// replaces the previous one.
type Notice struct {
	Level   NoticeLevel
	Title   string
	Message string
	Time    time.Time
}

func info(title, message string) *Notice {
	return &Notice{Level: NoticeInfo, Title: title, Message: message, Time: time.Now()}
}

func failure(title, message string) *Notice {
	return &Notice{Level: NoticeError, Title: title, Message: message, Time: time.Now()}
}
