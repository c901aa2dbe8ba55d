package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dgallion1/reportdoc/internal/revision"
	"github.com/dgallion1/reportdoc/internal/store"
)

// DefaultPrefix is the key namespace for report documents.
const DefaultPrefix = "reportdoc/docs"

// Store keeps one pathstore node per document holding its full snapshot.
type Store struct {
	client *Client
	prefix string
}

func NewStore(client *Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

func (s *Store) key(docID string) string {
	return s.prefix + "/" + url.PathEscape(docID)
}

func (s *Store) Save(ctx context.Context, snap revision.Snapshot) error {
	err := s.client.PutNode(ctx, s.key(snap.DocID), NodeRequest{
		Value:     snap,
		MergeMode: "replace",
		Source:    "reportdoc",
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", snap.DocID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, docID string) (*revision.Snapshot, error) {
	node, err := s.client.GetNode(ctx, s.key(docID))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", docID, err)
	}
	if node == nil {
		return nil, store.ErrNotFound
	}
	var snap revision.Snapshot
	if err := json.Unmarshal(node.Value, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", docID, err)
	}
	return &snap, nil
}

func (s *Store) Delete(ctx context.Context, docID string) error {
	found, err := s.client.DeleteNode(ctx, s.key(docID))
	if err != nil {
		return fmt.Errorf("delete %s: %w", docID, err)
	}
	if !found {
		return store.ErrNotFound
	}
	return nil
}

// List returns the ids of stored documents.
func (s *Store) List(ctx context.Context) ([]string, error) {
	nodes, err := s.client.ListChildren(ctx, s.prefix, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		rest := strings.TrimPrefix(n.Key, s.prefix+"/")
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		if id, err := url.PathUnescape(rest); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
