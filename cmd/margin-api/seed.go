package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/MarcoPoloResearchLab/margin/internal/annotations"
	"github.com/MarcoPoloResearchLab/margin/internal/document"
	"github.com/MarcoPoloResearchLab/margin/internal/notifications"
	"go.uber.org/zap"
)

// Seed data is an external concern: the core only has to accept records with
// caller-specified provenance. The seed file anchors annotations by phrase,
// so a seed survives edits to the reading document as long as the phrases do.
type seedFile struct {
	Annotations   []seedAnnotation   `json:"annotations"`
	Notifications []seedNotification `json:"notifications"`
}

type seedAnnotation struct {
	Phrase           string      `json:"phrase"`
	Note             string      `json:"note"`
	Author           string      `json:"author"`
	CreatedAtSeconds int64       `json:"created_at_s"`
	Replies          []seedReply `json:"replies"`
}

type seedReply struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

type seedNotification struct {
	Title            string `json:"title"`
	Body             string `json:"body"`
	CreatedAtSeconds int64  `json:"created_at_s"`
	Read             bool   `json:"read"`
}

func applySeed(path string, body *document.Body, store *annotations.Store, feed *notifications.Feed, logger *zap.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return err
	}

	for _, entry := range seed.Annotations {
		anchor, err := document.CaptureByPhrase(entry.Phrase, body)
		if err != nil {
			logger.Warn("seed phrase not anchored",
				zap.String("phrase", entry.Phrase),
				zap.Error(err))
			continue
		}
		params := annotations.AppendParams{
			Anchor: anchor,
			Note:   entry.Note,
			Author: entry.Author,
		}
		if entry.CreatedAtSeconds > 0 {
			params.CreatedAt = time.Unix(entry.CreatedAtSeconds, 0).UTC()
		}
		record, err := store.Append(params)
		if err != nil {
			logger.Warn("seed annotation rejected", zap.Error(err))
			continue
		}
		for _, reply := range entry.Replies {
			if _, err := store.AppendReply(record.ID, reply.Author, reply.Text); err != nil {
				logger.Warn("seed reply rejected",
					zap.String("annotation_id", record.ID),
					zap.Error(err))
			}
		}
	}

	for _, entry := range seed.Notifications {
		params := notifications.NotifyParams{
			Title: entry.Title,
			Body:  entry.Body,
		}
		if entry.CreatedAtSeconds > 0 {
			params.CreatedAt = time.Unix(entry.CreatedAtSeconds, 0).UTC()
		}
		created, err := feed.Notify(params)
		if err != nil {
			logger.Warn("seed notification rejected", zap.Error(err))
			continue
		}
		if entry.Read {
			feed.MarkRead(created.ID)
		}
	}

	logger.Info("seed applied",
		zap.Int("annotations", store.Len()),
		zap.Int("notifications", feed.Len()))
	return nil
}
