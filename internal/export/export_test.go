package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"social-pulse/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Record{}, &models.RecordComment{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func seedRecords(t *testing.T, db *gorm.DB) {
	records := []models.Record{
		{
			DocID:     "aaaa000000000000aaaa000000000000",
			Platform:  "x",
			CreatedAt: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
			Text:      "first post",
			Hashtags:  pq.StringArray{"golang", "testing"},
			Likes:     12,
			Comments:  3,
			Views:     400,
			URL:       "https://x.com/i/status/1",
		},
		{
			DocID:     "bbbb000000000000bbbb000000000000",
			Platform:  "blog",
			CreatedAt: time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC),
			Text:      "second post",
			Likes:     5,
			Comments:  1,
			URL:       "https://blog.example.com/p/2",
			CommentsDetail: []models.RecordComment{
				{Position: 0, AuthorHash: "cafe", Content: "great read", Date: time.Date(2024, 2, 21, 0, 0, 0, 0, time.UTC)},
			},
		},
	}
	for i := range records {
		if err := db.Create(&records[i]).Error; err != nil {
			t.Fatalf("Failed to seed record: %v", err)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	db := setupTestDB(t)
	seedRecords(t, db)
	svc := NewService(db)

	var buf bytes.Buffer
	err := svc.WriteCSV(&buf, "")
	assert.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, rows, 3)

	assert.Equal(t, []string{
		"doc_id", "platform", "created_at", "text", "hashtags",
		"likes", "comments", "views", "url",
	}, rows[0])

	// Ordered oldest first.
	assert.Equal(t, "aaaa000000000000aaaa000000000000", rows[1][0])
	assert.Equal(t, "x", rows[1][1])
	assert.Equal(t, "2024-01-10T08:00:00Z", rows[1][2])
	assert.Equal(t, "golang testing", rows[1][4])
	assert.Equal(t, "12", rows[1][5])
	assert.Equal(t, "400", rows[1][7])
}

func TestWriteCSVPlatformFilter(t *testing.T) {
	db := setupTestDB(t)
	seedRecords(t, db)
	svc := NewService(db)

	var buf bytes.Buffer
	err := svc.WriteCSV(&buf, "blog")
	assert.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "blog", rows[1][1])
}

func TestWriteJSONNestsComments(t *testing.T) {
	db := setupTestDB(t)
	seedRecords(t, db)
	svc := NewService(db)

	var buf bytes.Buffer
	err := svc.WriteJSON(&buf, "")
	assert.NoError(t, err)

	var out []map[string]interface{}
	err = json.Unmarshal(buf.Bytes(), &out)
	assert.NoError(t, err)
	assert.Len(t, out, 2)

	first := out[0]
	assert.Equal(t, "aaaa000000000000aaaa000000000000", first["doc_id"])
	assert.Equal(t, "x", first["platform"])
	_, hasComments := first["comments_detail"]
	assert.False(t, hasComments, "record without comments should omit the field")

	second := out[1]
	comments, ok := second["comments_detail"].([]interface{})
	if !ok {
		t.Fatalf("expected nested comments, got %T", second["comments_detail"])
	}
	assert.Len(t, comments, 1)
	cmt := comments[0].(map[string]interface{})
	assert.Equal(t, "cafe", cmt["author_hash"])
	assert.Equal(t, "great read", cmt["content"])
}
