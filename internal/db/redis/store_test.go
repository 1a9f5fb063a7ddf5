package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/menuseed/internal/db"
)

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestNewStore_Validation(t *testing.T) {
	if _, err := NewStore(Config{PublicBaseURL: "http://x"}); err == nil {
		t.Error("expected error for missing addrs")
	}
	if _, err := NewStore(Config{Addrs: []string{"localhost:6379"}}); err == nil {
		t.Error("expected error for missing public base url")
	}
}

// --- documents.go tests ---

func TestCreateDocument_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "menuseed:doc:categories:id-1", `{"name":"Pizza"}`, "NX")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	doc, err := s.CreateDocument(context.Background(), "categories", map[string]any{"name": "Pizza"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != "id-1" || doc.Data["name"] != "Pizza" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestCreateDocument_IDTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SET" })).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.CreateDocument(context.Background(), "categories", map[string]any{"name": "Pizza"})
	if !errors.Is(err, db.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestCreateDocument_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SET" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.CreateDocument(context.Background(), "menu", map[string]any{"name": "Veggie"})
	if !isDBError(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error, got %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SCAN", "0", "MATCH", "menuseed:doc:menu:*", "COUNT", "100")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0),
			mock.RedisArray(
				mock.RedisString("menuseed:doc:menu:a"),
				mock.RedisString("menuseed:doc:menu:b"),
			),
		)))
	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("GET", "menuseed:doc:menu:a"),
			mock.Match("GET", "menuseed:doc:menu:b"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString(`{"name":"Veggie"}`)),
			mock.Result(mock.RedisNil()),
		})

	s := NewStoreForTest(c)
	docs, err := s.ListDocuments(context.Background(), "menu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc (vanished key skipped), got %d", len(docs))
	}
	if docs[0].ID != "a" || docs[0].Data["name"] != "Veggie" {
		t.Errorf("unexpected doc: %+v", docs[0])
	}
}

func TestListDocuments_FollowsCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("SCAN", "0", "MATCH", "menuseed:doc:menu:*", "COUNT", "100")).
			Return(mock.Result(mock.RedisArray(
				mock.RedisInt64(7),
				mock.RedisArray(mock.RedisString("menuseed:doc:menu:a")),
			))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("SCAN", "7", "MATCH", "menuseed:doc:menu:*", "COUNT", "100")).
			Return(mock.Result(mock.RedisArray(
				mock.RedisInt64(0),
				mock.RedisArray(),
			))),
	)
	c.EXPECT().
		DoMulti(gomock.Any(), mock.Match("GET", "menuseed:doc:menu:a")).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisString(`{}`))})

	s := NewStoreForTest(c)
	docs, err := s.ListDocuments(context.Background(), "menu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 doc, got %d", len(docs))
	}
}

func TestListDocuments_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SCAN" })).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0), mock.RedisArray())))

	s := NewStoreForTest(c)
	docs, err := s.ListDocuments(context.Background(), "menu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no docs, got %d", len(docs))
	}
}

func TestDeleteDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "menuseed:doc:menu:a")).
		Return(mock.Result(mock.RedisInt64(1)))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "menuseed:doc:menu:b")).
		Return(mock.Result(mock.RedisInt64(0)))

	s := NewStoreForTest(c)
	if err := s.DeleteDocument(context.Background(), "menu", "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.DeleteDocument(context.Background(), "menu", "b")
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- storage.go tests ---

func TestUploadBlob(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "menuseed:blob:assets:id-1" && len(cmd) == 10
		})).
		Return(mock.Result(mock.RedisInt64(4)))

	s := NewStoreForTest(c)
	id, err := s.UploadBlob(context.Background(), "assets", []byte("png"), "img.png", "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "id-1" {
		t.Errorf("expected id-1, got %s", id)
	}
}

func TestUploadBlob_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c)
	if _, err := s.UploadBlob(context.Background(), "assets", nil, "x", "image/png"); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestListFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SCAN", "0", "MATCH", "menuseed:blob:assets:*", "COUNT", "100")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0),
			mock.RedisArray(mock.RedisString("menuseed:blob:assets:id-9")),
		)))
	c.EXPECT().
		DoMulti(gomock.Any(), mock.Match("HMGET", "menuseed:blob:assets:id-9", "name", "mime", "size")).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisArray(
			mock.RedisString("img.png"),
			mock.RedisString("image/png"),
			mock.RedisString("3"),
		))})

	s := NewStoreForTest(c)
	files, err := s.ListFiles(context.Background(), "assets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	f := files[0]
	if f.ID != "id-9" || f.Name != "img.png" || f.MimeType != "image/png" || f.Size != 3 {
		t.Errorf("unexpected file: %+v", f)
	}
}

func TestDeleteFile_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "menuseed:blob:assets:id-1")).
		Return(mock.ErrorResult(errors.New("READONLY")))

	s := NewStoreForTest(c)
	err := s.DeleteFile(context.Background(), "assets", "id-1")
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestResolvableURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := NewStoreForTest(mock.NewClient(ctrl))

	u, err := s.ResolvableURL("assets", "id-1", db.Rendering{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != "http://blobs.local/assets/id-1" {
		t.Errorf("unexpected url: %s", u)
	}

	u, _ = s.ResolvableURL("assets", "id-1", db.Rendering{Width: 200, Quality: 80})
	if u != "http://blobs.local/assets/id-1?q=80&w=200" {
		t.Errorf("unexpected url: %s", u)
	}
}
