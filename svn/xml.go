package svn

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-commit-relay/core"
)

type infoDocument struct {
	XMLName xml.Name    `xml:"info"`
	Entries []infoEntry `xml:"entry"`
}

type infoEntry struct {
	Commit infoCommit `xml:"commit"`
}

type infoCommit struct {
	Revision int64 `xml:"revision,attr"`
}

type logDocument struct {
	XMLName xml.Name   `xml:"log"`
	Entries []logEntry `xml:"logentry"`
}

type logEntry struct {
	Revision int64     `xml:"revision,attr"`
	Author   string    `xml:"author"`
	Date     string    `xml:"date"`
	Message  string    `xml:"msg"`
	Paths    []logPath `xml:"paths>path"`
}

type logPath struct {
	Action string `xml:"action,attr"`
	Value  string `xml:",chardata"`
}

func parseHeadRevision(data []byte) (int64, error) {
	var doc infoDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("svn: unmarshal info xml: %w", err)
	}
	if len(doc.Entries) == 0 {
		return 0, fmt.Errorf("svn: info xml has no entries")
	}
	revision := doc.Entries[0].Commit.Revision
	if revision <= 0 {
		return 0, fmt.Errorf("svn: info xml has no commit revision")
	}
	return revision, nil
}

func parseLog(data []byte) ([]core.CommitRecord, error) {
	var doc logDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("svn: unmarshal log xml: %w", err)
	}
	records := make([]core.CommitRecord, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		record, err := entry.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (e logEntry) toRecord() (core.CommitRecord, error) {
	if e.Revision <= 0 {
		return core.CommitRecord{}, fmt.Errorf("svn: log entry missing revision")
	}
	timestamp, err := parseLogDate(e.Date)
	if err != nil {
		return core.CommitRecord{}, fmt.Errorf("svn: log entry r%d: %w", e.Revision, err)
	}
	paths := make([]core.ChangedPath, 0, len(e.Paths))
	for _, p := range e.Paths {
		paths = append(paths, core.ChangedPath{
			Kind: core.NormalizeChangeKind(p.Action),
			Path: strings.TrimSpace(p.Value),
		})
	}
	return core.CommitRecord{
		Revision:     e.Revision,
		Author:       e.Author,
		Timestamp:    timestamp,
		Message:      e.Message,
		ChangedPaths: paths,
	}, nil
}

func parseLogDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return ts, nil
}
