package transcribe

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

const (
	entryTitle  = "# Transcript"
	datePrefix  = "**Date:** "
	timePrefix  = "**Time:** "
	separator   = "---"
	dateLayout  = "Monday, January 2, 2006"
	clockLayout = "15:04:05"
	fileLayout  = "2006-01-02T150405"
)

// Entry is one diary page. It is written once and never updated.
type Entry struct {
	Timestamp time.Time
	Body      string
}

// Filename is the entry's file name, derived from its timestamp.
func (e Entry) Filename() string {
	return e.Timestamp.Format(fileLayout) + ".md"
}

// Markdown renders the entry document.
func (e Entry) Markdown() string {
	var sb strings.Builder
	sb.WriteString(entryTitle + "\n\n")
	sb.WriteString(datePrefix + e.Timestamp.Format(dateLayout) + "\n")
	sb.WriteString(timePrefix + e.Timestamp.Format(clockLayout) + "\n\n")
	sb.WriteString(separator + "\n\n")
	sb.WriteString(strings.TrimSpace(e.Body))
	sb.WriteString("\n")
	return sb.String()
}

// WriteEntry creates dir if needed and writes the entry. An existing file
// with the same name is an error.
func WriteEntry(dir string, e Entry) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeFileWriteFailed, "cannot create diary directory "+dir, apperrors.CategorySystem)
	}

	path := filepath.Join(dir, e.Filename())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", apperrors.User(apperrors.CodeFileWriteFailed, "diary entry already exists: "+path)
		}
		return "", apperrors.Wrap(err, apperrors.CodeFileWriteFailed, "cannot create "+path, apperrors.CategorySystem)
	}

	if _, err := f.WriteString(e.Markdown()); err != nil {
		f.Close()
		return "", apperrors.Wrap(err, apperrors.CodeFileWriteFailed, "cannot write "+path, apperrors.CategorySystem)
	}
	if err := f.Close(); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeFileWriteFailed, "cannot write "+path, apperrors.CategorySystem)
	}
	return path, nil
}

// ReadEntry parses a diary file written by WriteEntry. The timestamp is
// interpreted in the local time zone.
func ReadEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.User(apperrors.CodeFileNotFound, "file not found: "+path)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeFileInvalid, "cannot read "+path, apperrors.CategorySystem)
	}

	var date, clock string
	var body []string
	inBody := false

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for lineNo := 0; sc.Scan(); lineNo++ {
		line := sc.Text()
		switch {
		case inBody:
			body = append(body, line)
		case lineNo == 0:
			if line != entryTitle {
				return nil, malformed(path, "missing title")
			}
		case strings.HasPrefix(line, datePrefix):
			date = strings.TrimPrefix(line, datePrefix)
		case strings.HasPrefix(line, timePrefix):
			clock = strings.TrimPrefix(line, timePrefix)
		case line == separator:
			inBody = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeFileInvalid, "cannot read "+path, apperrors.CategorySystem)
	}
	if !inBody {
		return nil, malformed(path, "missing separator")
	}

	ts, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+clock, time.Local)
	if err != nil {
		return nil, malformed(path, "bad date or time")
	}

	return &Entry{Timestamp: ts, Body: strings.TrimSpace(strings.Join(body, "\n"))}, nil
}

func malformed(path, why string) error {
	return apperrors.User(apperrors.CodeFileInvalid, fmt.Sprintf("%s is not a diary entry: %s", path, why))
}
