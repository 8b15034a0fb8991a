// Package search maintains a full-text index over text messages so a
// chat's history can be searched without scanning the message log.
package search

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"

	"social-live/domain"
)

type Hit struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
}

// Index wraps a Bluge writer. It doubles as an event sink: every
// persisted text message is indexed from the fanout pipeline.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(writer *bluge.Writer, log *slog.Logger) *Index {
	return &Index{writer: writer, log: log}
}

func (i *Index) Consume(_ context.Context, e domain.DomainEvent) error {
	evt, ok := e.(domain.MessagePosted)
	if !ok {
		return nil
	}
	return i.IndexMessage(evt.ChatID, evt.Message)
}

// IndexMessage adds one message to the index. Media messages carry no
// searchable text and are skipped.
func (i *Index) IndexMessage(chatID domain.ChatID, msg domain.Message) error {
	if msg.Type != domain.MessageText {
		return nil
	}

	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewKeywordField("chat", string(chatID)).StoreValue()).
		AddField(bluge.NewTextField("text", msg.Text).StoreValue()).
		AddField(bluge.NewKeywordField("sender", msg.Sender).StoreValue()).
		AddField(bluge.NewDateTimeField("at", msg.SentAt))

	return i.writer.Update(doc.ID(), doc)
}

// Search returns up to limit text messages of one chat matching the query.
func (i *Index) Search(ctx context.Context, chatID domain.ChatID, query string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(string(chatID)).SetField("chat")).
		AddMust(bluge.NewMatchQuery(query).SetField("text"))

	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	match, err := iter.Next()
	for err == nil && match != nil {
		var hit Hit
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "text":
				hit.Text = string(value)
			case "sender":
				hit.Sender = string(value)
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iter.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
