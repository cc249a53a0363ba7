package repositories

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"

	"chat-relay/domain"
)

// SearchIndex makes relayed messages findable by text, scoped to a room. The
// index is write-behind: a failed index write is logged by the caller and
// never blocks message delivery.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// SearchHit is one matching message.
type SearchHit struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
}

// IndexMessage adds one message to the index. Messages are immutable, so
// re-indexing the same id is an overwrite with identical content.
func (s *SearchIndex) IndexMessage(msg domain.Message) error {
	doc := bluge.NewDocument(msg.ID.String())
	doc.AddField(bluge.NewKeywordField("room", string(msg.RoomID)).StoreValue())
	doc.AddField(bluge.NewKeywordField("sender", msg.SenderID).StoreValue())
	doc.AddField(bluge.NewTextField("text", msg.Text).StoreValue())
	return s.writer.Update(doc.ID(), doc)
}

// Search returns up to limit messages in roomID matching terms.
func (s *SearchIndex) Search(ctx context.Context, terms string, roomID domain.RoomID, limit int) ([]SearchHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Debug("Closing index reader failed", "err", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("text")).
		AddMust(bluge.NewTermQuery(string(roomID)).SetField("room"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	hits := []SearchHit{}
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var hit SearchHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "room":
				hit.RoomID = string(value)
			case "sender":
				hit.SenderID = string(value)
			case "text":
				hit.Text = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
