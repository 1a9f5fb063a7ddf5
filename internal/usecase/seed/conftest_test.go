package seed

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/menuseed/internal/domain"
)

// mockRepo implements Repository with sequential IDs and a call log.
type mockRepo struct {
	mu    sync.Mutex
	seq   int
	calls []string

	createMenuFn func(ctx context.Context, m domain.MenuItem) (domain.MenuItem, error)
	createLinkFn func(ctx context.Context, l domain.MenuCustomizationLink) (domain.MenuCustomizationLink, error)
}

func (m *mockRepo) next(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("%s%d", prefix, m.seq)
	m.calls = append(m.calls, "create:"+id)
	return id
}

func (m *mockRepo) log(entry string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, entry)
}

func (m *mockRepo) CreateCategory(_ context.Context, c domain.Category) (domain.Category, error) {
	c.ID = m.next("c")
	return c, nil
}

func (m *mockRepo) CreateCustomization(_ context.Context, c domain.Customization) (domain.Customization, error) {
	c.ID = m.next("u")
	return c, nil
}

func (m *mockRepo) CreateMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	if m.createMenuFn != nil {
		return m.createMenuFn(ctx, item)
	}
	item.ID = m.next("m")
	return item, nil
}

func (m *mockRepo) CreateLink(ctx context.Context, l domain.MenuCustomizationLink) (domain.MenuCustomizationLink, error) {
	if m.createLinkFn != nil {
		return m.createLinkFn(ctx, l)
	}
	l.ID = m.next("l")
	return l, nil
}

// mockUploader returns "resolved:<source>" and logs each call into repo.
type mockUploader struct {
	repo     *mockRepo
	uploadFn func(ctx context.Context, sourceURL string) (string, error)
}

func (u *mockUploader) Upload(ctx context.Context, sourceURL string) (string, error) {
	if u.repo != nil {
		u.repo.log("upload:" + sourceURL)
	}
	if u.uploadFn != nil {
		return u.uploadFn(ctx, sourceURL)
	}
	return "resolved:" + sourceURL, nil
}
