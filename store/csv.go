// Package store persists launch records: the CSV record store the scraper
// writes and the delivery pass rewrites, a SQLite journal of delivery
// attempts and an S3 archiver for finished runs.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/polliog/launch-outreach/launch"
)

var ErrNotFound = errors.New("record store not found")

// BaseColumns is the layout written by a scrape pass.
var BaseColumns = []string{
	"date", "source", "name", "tagline", "website", "email", "maker_name",
	"maker_profile", "twitter", "linkedin", "github", "other_social", "ph_url",
}

// StatusColumns are appended once delivery has touched the file.
var StatusColumns = []string{"email_sent", "email_sent_at"}

// FileName is the conventional store name for a scrape date.
func FileName(date string) string {
	return "launches-" + date + ".csv"
}

// CSV is a header-plus-rows record store. Every Save replaces the file
// atomically, so readers never observe a partially written store.
type CSV struct {
	path       string
	withStatus bool
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Path() string {
	return c.path
}

// Load reads all records. Columns are matched by header name, so files
// with or without the status columns (and with unknown extra columns) are
// accepted.
func (c *CSV) Load() ([]launch.Product, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, c.path)
		}

		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading header of %s: %w", c.path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	if _, ok := index["email_sent"]; ok {
		c.withStatus = true
	}

	var products []launch.Product

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", c.path, err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}

			return row[i]
		}

		products = append(products, launch.Product{
			Date:         get("date"),
			Source:       get("source"),
			Name:         get("name"),
			Tagline:      get("tagline"),
			Website:      get("website"),
			Email:        get("email"),
			MakerName:    get("maker_name"),
			MakerProfile: get("maker_profile"),
			Twitter:      get("twitter"),
			LinkedIn:     get("linkedin"),
			GitHub:       get("github"),
			OtherSocial:  get("other_social"),
			PHURL:        get("ph_url"),
			EmailSent:    launch.ParseStatus(get("email_sent")),
			EmailSentAt:  get("email_sent_at"),
		})
	}

	return products, nil
}

// Save writes products to a temporary file next to the store and renames
// it over the store. Status columns are written once any record carries a
// status, or when the loaded file already had them.
func (c *CSV) Save(products []launch.Product) error {
	if !c.withStatus {
		c.withStatus = slices.ContainsFunc(products, func(p launch.Product) bool {
			return p.Touched()
		})
	}

	columns := BaseColumns
	if c.withStatus {
		columns = append(slices.Clone(BaseColumns), StatusColumns...)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if err := writeRows(tmp, columns, products); err != nil {
		tmp.Close()

		return fmt.Errorf("writing %s: %w", tmpName, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()

		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpName, c.path)
}

// Merge writes a fresh scrape into the store and returns what was written.
// Records already in the store keep their delivery status, matched by key,
// and records the scrape no longer lists are kept after the fresh ones. An
// empty scrape leaves the store untouched.
func (c *CSV) Merge(products []launch.Product) ([]launch.Product, error) {
	previous, err := c.Load()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if len(products) == 0 {
		return previous, nil
	}

	merged := MergeStatus(products, previous)

	if err := c.Save(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// MergeStatus carries EmailSent and EmailSentAt from previous onto the
// products sharing their key. Unmatched previous records are appended.
func MergeStatus(products, previous []launch.Product) []launch.Product {
	byKey := make(map[string]int, len(previous))

	for i := range previous {
		if _, ok := byKey[previous[i].Key()]; !ok {
			byKey[previous[i].Key()] = i
		}
	}

	merged := make([]launch.Product, 0, len(products)+len(previous))
	used := make(map[int]bool, len(previous))

	for _, p := range products {
		if i, ok := byKey[p.Key()]; ok && !used[i] {
			used[i] = true
			p.EmailSent = previous[i].EmailSent
			p.EmailSentAt = previous[i].EmailSentAt
		}

		merged = append(merged, p)
	}

	for i := range previous {
		if !used[i] {
			merged = append(merged, previous[i])
		}
	}

	return merged
}

func writeRows(w io.Writer, columns []string, products []launch.Product) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return err
	}

	for i := range products {
		p := &products[i]

		row := []string{
			p.Date, p.Source, p.Name, p.Tagline, p.Website, p.Email, p.MakerName,
			p.MakerProfile, p.Twitter, p.LinkedIn, p.GitHub, p.OtherSocial, p.PHURL,
		}

		if len(columns) > len(BaseColumns) {
			row = append(row, string(p.EmailSent), p.EmailSentAt)
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
