package web

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/polliog/launch-outreach/launch"
	"github.com/polliog/launch-outreach/store"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = store.ErrNotFound
)

const csvExt = ".csv"

// FileInfo describes one record store in the data folder.
type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// IndexedRecord is a record with its 1-based position in the store.
type IndexedRecord struct {
	Index  int            `json:"index"`
	Record launch.Product `json:"record"`
}

// FileStats extends the scrape stats with delivery outcomes.
type FileStats struct {
	launch.Stats
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Pending int `json:"pending"`
}

type Service struct {
	dataFolder string
}

func NewService(dataFolder string) *Service {
	return &Service{dataFolder: dataFolder}
}

func validName(name string) bool {
	return name != "" && !strings.Contains(name, "/") && !strings.Contains(name, "\\") && !strings.Contains(name, "..")
}

// Files lists the record stores, newest first.
func (s *Service) Files(_ context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dataFolder)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}

		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), csvExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, err
		}

		files = append(files, FileInfo{
			Name:       strings.TrimSuffix(e.Name(), csvExt),
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}

	slices.SortFunc(files, func(a, b FileInfo) int {
		return strings.Compare(b.Name, a.Name)
	})

	return files, nil
}

// GetCSV returns the path of the named record store.
func (s *Service) GetCSV(_ context.Context, name string) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}

	datapath := filepath.Join(s.dataFolder, name+csvExt)

	if _, err := os.Stat(datapath); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return datapath, nil
}

func (s *Service) load(ctx context.Context, name string) ([]launch.Product, error) {
	datapath, err := s.GetCSV(ctx, name)
	if err != nil {
		return nil, err
	}

	return store.NewCSV(datapath).Load()
}

func (s *Service) GetRecords(ctx context.Context, name string, page, pageSize int, search string) ([]IndexedRecord, int, error) {
	products, err := s.load(ctx, name)
	if err != nil {
		return nil, 0, err
	}

	indexed := make([]IndexedRecord, 0, len(products))
	search = strings.ToLower(strings.TrimSpace(search))

	for i, p := range products {
		if search != "" && !matches(&p, search) {
			continue
		}

		indexed = append(indexed, IndexedRecord{Index: i + 1, Record: p})
	}

	total := len(indexed)

	// compared by division so a huge page cannot overflow the offset
	if page < 1 || pageSize < 1 || total == 0 || page-1 > (total-1)/pageSize {
		return []IndexedRecord{}, total, nil
	}

	start := (page - 1) * pageSize

	end := min(start+pageSize, total)

	return indexed[start:end], total, nil
}

func matches(p *launch.Product, search string) bool {
	for _, field := range []string{p.Name, p.Tagline, p.Email, p.MakerName, p.Website} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}

	return false
}

func (s *Service) Stats(ctx context.Context, name string) (FileStats, error) {
	products, err := s.load(ctx, name)
	if err != nil {
		return FileStats{}, err
	}

	st := FileStats{Stats: launch.Summarize(products)}

	for i := range products {
		switch products[i].EmailSent {
		case launch.StatusSent:
			st.Sent++
		case launch.StatusFailed:
			st.Failed++
		case launch.StatusSkipped:
			st.Skipped++
		default:
			if products[i].Email != "" {
				st.Pending++
			}
		}
	}

	return st, nil
}
