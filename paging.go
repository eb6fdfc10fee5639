package rowsgroup

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

var _encoder = base64.RawURLEncoding

// Paging addresses the visible page of a table: the offset of its first row
// within the filtered and ordered row set, and the page length.
//
// A nil *Paging is the first page of DefaultPageLength rows.
type Paging struct {
	start  int
	length int
}

func NewPaging(start, length int) *Paging {
	return (&Paging{}).WithStart(start).WithLength(length)
}

// DecodePaging parses a token produced by Paging.String. An empty token is
// the first page with the default length.
func DecodePaging(b64String string) (*Paging, error) {
	if len(b64String) == 0 {
		return NewPaging(0, DefaultPageLength), nil
	}

	raw, err := _encoder.DecodeString(b64String)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded paging: %w", err)
	}

	startStr, lengthStr, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, fmt.Errorf("malformed paging token '%s'", raw)
	}

	start, err := strconv.Atoi(startStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode paging start value: %w", err)
	}

	length, err := strconv.Atoi(lengthStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode paging length value: %w", err)
	}

	return NewPaging(start, length), nil
}

// String - implements fmt.Stringer. Returns an opaque URL-safe token.
func (p *Paging) String() string {
	return _encoder.EncodeToString([]byte(fmt.Sprintf("%d:%d", p.GetStart(), p.GetLength())))
}

// Apply applies LIMIT/OFFSET to a gorm query.
func (p *Paging) Apply(db *gorm.DB) *gorm.DB {
	if p.IsAll() {
		return db
	}

	db = db.Limit(p.GetLength())
	if start := p.GetStart(); start > 0 {
		db = db.Offset(start)
	}

	return db
}

// GetStart returns the offset of the first row of the page.
func (p *Paging) GetStart() int {
	if p == nil {
		return 0
	}

	return p.start
}

// GetLength returns the page length, AllRows meaning "no paging".
func (p *Paging) GetLength() int {
	if p == nil || p.length == 0 {
		return DefaultPageLength
	}

	return p.length
}

// IsAll reports whether every row is displayed on a single page.
func (p *Paging) IsAll() bool {
	return p.GetLength() == AllRows
}

// WithStart sets the page start. Negative values are treated as 0.
func (p *Paging) WithStart(start int) *Paging {
	if p == nil {
		p = new(Paging)
	}

	p.start = max(start, 0)

	return p
}

// WithLength sets the page length, normalized by NormalizePageLength.
func (p *Paging) WithLength(length int) *Paging {
	if p == nil {
		p = new(Paging)
	}

	p.length = NormalizePageLength(length)

	return p
}

// WithPage moves the start to the first row of page n (zero based).
func (p *Paging) WithPage(n int) *Paging {
	if p == nil {
		p = new(Paging)
	}

	if p.IsAll() {
		return p.WithStart(0)
	}

	return p.WithStart(max(n, 0) * p.GetLength())
}

// Page returns the zero-based page number.
func (p *Paging) Page() int {
	if p.IsAll() {
		return 0
	}

	return p.GetStart() / p.GetLength()
}

// Pages returns the number of pages needed for total rows.
func (p *Paging) Pages(total int) int {
	if total <= 0 {
		return 0
	}
	if p.IsAll() {
		return 1
	}

	length := p.GetLength()

	return (total + length - 1) / length
}

// Bounds returns the half-open row range [from, to) of the page within a row
// set of total rows.
func (p *Paging) Bounds(total int) (int, int) {
	from := min(p.GetStart(), max(total, 0))
	if p.IsAll() {
		return from, max(total, 0)
	}

	return from, min(from+p.GetLength(), max(total, 0))
}

// Clone returns an independent copy.
func (p *Paging) Clone() *Paging {
	return &Paging{start: p.GetStart(), length: p.GetLength()}
}

var _ fmt.Stringer = (*Paging)(nil)
