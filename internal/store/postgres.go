package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/revision"
)

// DocumentRow is the canonical text of one report.
type DocumentRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Title     string    `gorm:"type:text"`
	Text      string    `gorm:"type:text"`
	Sources   string    `gorm:"type:text"` // JSON list of uploaded documents
	UpdatedAt time.Time `gorm:"type:timestamp with time zone;not null"`
}

func (DocumentRow) TableName() string { return "documents" }

// ChangeRow is one tracked change. Seq preserves creation order.
type ChangeRow struct {
	ID           string      `gorm:"primaryKey;type:text"`
	DocID        string      `gorm:"type:text;index;not null"`
	Document     DocumentRow `gorm:"foreignKey:DocID;references:ID;constraint:OnDelete:CASCADE;"`
	Seq          int         `gorm:"not null"`
	Type         string      `gorm:"type:text"`
	SectionIndex *int
	SectionID    string    `gorm:"type:text"`
	OldContent   *string   `gorm:"type:text"`
	NewContent   *string   `gorm:"type:text"`
	Author       string    `gorm:"type:text"`
	Status       string    `gorm:"type:text;index"`
	Timestamp    time.Time `gorm:"type:timestamp with time zone"`
}

func (ChangeRow) TableName() string { return "changes" }

// VersionRow is an immutable saved version.
type VersionRow struct {
	ID          string      `gorm:"primaryKey;type:text"`
	DocID       string      `gorm:"type:text;uniqueIndex:uniq_version_number;not null"`
	Document    DocumentRow `gorm:"foreignKey:DocID;references:ID;constraint:OnDelete:CASCADE;"`
	Number      int         `gorm:"uniqueIndex:uniq_version_number;not null"`
	Content     string      `gorm:"type:text"`
	Author      string      `gorm:"type:text"`
	Description string      `gorm:"type:text"`
	Changes     string      `gorm:"type:text"` // JSON list of accepted changes
	Timestamp   time.Time   `gorm:"type:timestamp with time zone"`
}

func (VersionRow) TableName() string { return "versions" }

// CommentRow is a comment thread; replies are stored as JSON.
type CommentRow struct {
	ID           string      `gorm:"primaryKey;type:text"`
	DocID        string      `gorm:"type:text;index;not null"`
	Document     DocumentRow `gorm:"foreignKey:DocID;references:ID;constraint:OnDelete:CASCADE;"`
	Seq          int         `gorm:"not null"`
	SectionIndex int
	SectionID    string    `gorm:"type:text"`
	Content      string    `gorm:"type:text"`
	Author       string    `gorm:"type:text"`
	Resolved     bool      `gorm:"not null;default:false"`
	Replies      string    `gorm:"type:text"`
	Timestamp    time.Time `gorm:"type:timestamp with time zone"`
}

func (CommentRow) TableName() string { return "comments" }

// Postgres stores snapshots in relational tables through gorm.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string) (*Postgres, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             300 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	return NewPostgres(db)
}

// NewPostgres wraps an open connection and migrates the schema.
func NewPostgres(db *gorm.DB) (*Postgres, error) {
	if err := db.AutoMigrate(&DocumentRow{}, &ChangeRow{}, &VersionRow{}, &CommentRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate schema")
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Save(ctx context.Context, snap revision.Snapshot) error {
	rows, err := toRows(snap)
	if err != nil {
		return err
	}
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "text", "sources", "updated_at"}),
		}).Create(&rows.doc).Error; err != nil {
			return errors.Wrap(err, "upsert document")
		}
		if len(rows.changes) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"status"}),
			}).Omit(clause.Associations).Create(&rows.changes).Error; err != nil {
				return errors.Wrap(err, "upsert changes")
			}
		}
		if len(rows.versions) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				DoNothing: true,
			}).Omit(clause.Associations).Create(&rows.versions).Error; err != nil {
				return errors.Wrap(err, "insert versions")
			}
		}
		if len(rows.comments) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"resolved", "replies"}),
			}).Omit(clause.Associations).Create(&rows.comments).Error; err != nil {
				return errors.Wrap(err, "upsert comments")
			}
		}
		return nil
	})
}

func (p *Postgres) Load(ctx context.Context, docID string) (*revision.Snapshot, error) {
	db := p.db.WithContext(ctx)

	var rows snapshotRows
	if err := db.Take(&rows.doc, "id = ?", docID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "load document")
	}
	if err := db.Where("doc_id = ?", docID).Order("seq").Find(&rows.changes).Error; err != nil {
		return nil, errors.Wrap(err, "load changes")
	}
	if err := db.Where("doc_id = ?", docID).Order("number").Find(&rows.versions).Error; err != nil {
		return nil, errors.Wrap(err, "load versions")
	}
	if err := db.Where("doc_id = ?", docID).Order("seq").Find(&rows.comments).Error; err != nil {
		return nil, errors.Wrap(err, "load comments")
	}
	return fromRows(rows)
}

func (p *Postgres) Delete(ctx context.Context, docID string) error {
	res := p.db.WithContext(ctx).Delete(&DocumentRow{}, "id = ?", docID)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete document")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns document ids, most recently updated first.
func (p *Postgres) List(ctx context.Context) ([]string, error) {
	var ids []string
	if err := p.db.WithContext(ctx).Model(&DocumentRow{}).Order("updated_at desc").Pluck("id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	return ids, nil
}

type snapshotRows struct {
	doc      DocumentRow
	changes  []ChangeRow
	versions []VersionRow
	comments []CommentRow
}

func toRows(snap revision.Snapshot) (snapshotRows, error) {
	sources, err := json.Marshal(snap.Documents)
	if err != nil {
		return snapshotRows{}, errors.Wrap(err, "encode sources")
	}
	rows := snapshotRows{doc: DocumentRow{
		ID:        snap.DocID,
		Title:     snap.Title,
		Text:      snap.Text,
		Sources:   string(sources),
		UpdatedAt: snap.UpdatedAt,
	}}
	for i, c := range snap.Changes {
		rows.changes = append(rows.changes, ChangeRow{
			ID:           c.ID,
			DocID:        snap.DocID,
			Seq:          i,
			Type:         string(c.Type),
			SectionIndex: c.SectionIndex,
			SectionID:    c.SectionID,
			OldContent:   c.OldContent,
			NewContent:   c.NewContent,
			Author:       c.Author,
			Status:       string(c.Status),
			Timestamp:    c.Timestamp,
		})
	}
	for _, v := range snap.Versions {
		changes, err := json.Marshal(v.Changes)
		if err != nil {
			return snapshotRows{}, errors.Wrapf(err, "encode version %d changes", v.Number)
		}
		rows.versions = append(rows.versions, VersionRow{
			ID:          v.ID,
			DocID:       snap.DocID,
			Number:      v.Number,
			Content:     v.Content,
			Author:      v.Author,
			Description: v.Description,
			Changes:     string(changes),
			Timestamp:   v.Timestamp,
		})
	}
	for i, c := range snap.Comments {
		replies, err := json.Marshal(c.Replies)
		if err != nil {
			return snapshotRows{}, errors.Wrapf(err, "encode comment %s replies", c.ID)
		}
		rows.comments = append(rows.comments, CommentRow{
			ID:           c.ID,
			DocID:        snap.DocID,
			Seq:          i,
			SectionIndex: c.SectionIndex,
			SectionID:    c.SectionID,
			Content:      c.Content,
			Author:       c.Author,
			Resolved:     c.Resolved,
			Replies:      string(replies),
			Timestamp:    c.Timestamp,
		})
	}
	return rows, nil
}

func fromRows(rows snapshotRows) (*revision.Snapshot, error) {
	snap := &revision.Snapshot{
		DocID:     rows.doc.ID,
		Title:     rows.doc.Title,
		Text:      rows.doc.Text,
		Changes:   []revision.Change{},
		Versions:  []revision.Version{},
		Comments:  []revision.Comment{},
		UpdatedAt: rows.doc.UpdatedAt,
	}
	if rows.doc.Sources != "" {
		var docs []doctree.SourceDocument
		if err := json.Unmarshal([]byte(rows.doc.Sources), &docs); err != nil {
			return nil, errors.Wrap(err, "decode sources")
		}
		snap.Documents = docs
	}
	for _, r := range rows.changes {
		snap.Changes = append(snap.Changes, revision.Change{
			ID:           r.ID,
			Type:         revision.ChangeType(r.Type),
			SectionIndex: r.SectionIndex,
			SectionID:    r.SectionID,
			OldContent:   r.OldContent,
			NewContent:   r.NewContent,
			Author:       r.Author,
			Timestamp:    r.Timestamp,
			Status:       revision.ChangeStatus(r.Status),
		})
	}
	for _, r := range rows.versions {
		v := revision.Version{
			ID:          r.ID,
			Number:      r.Number,
			Content:     r.Content,
			Author:      r.Author,
			Timestamp:   r.Timestamp,
			Description: r.Description,
		}
		if r.Changes != "" {
			if err := json.Unmarshal([]byte(r.Changes), &v.Changes); err != nil {
				return nil, errors.Wrapf(err, "decode version %d changes", r.Number)
			}
		}
		snap.Versions = append(snap.Versions, v)
	}
	for _, r := range rows.comments {
		c := revision.Comment{
			ID:           r.ID,
			SectionIndex: r.SectionIndex,
			SectionID:    r.SectionID,
			Content:      r.Content,
			Author:       r.Author,
			Timestamp:    r.Timestamp,
			Resolved:     r.Resolved,
			Replies:      []revision.Reply{},
		}
		if r.Replies != "" {
			if err := json.Unmarshal([]byte(r.Replies), &c.Replies); err != nil {
				return nil, errors.Wrapf(err, "decode comment %s replies", r.ID)
			}
		}
		snap.Comments = append(snap.Comments, c)
	}
	return snap, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	return sqlDB.Close()
}
