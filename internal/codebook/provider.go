package codebook

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"filing-service/internal/apperrors"
	"filing-service/internal/models"
)

// Source produces validated office records from some raw representation.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.OfficeRecord, error)
}

// Provider loads the codebook once per process. Concurrent first callers share a single
// load; afterwards reads go straight to the immutable snapshot. A failed load is not
// memoized, the next caller retries.
type Provider struct {
	source Source
	group  singleflight.Group
	book   atomic.Pointer[Codebook]
	logger *logrus.Entry
}

// NewProvider creates a provider over source
func NewProvider(source Source, logger *logrus.Logger) *Provider {
	return &Provider{
		source: source,
		logger: logger.WithField("component", "codebook"),
	}
}

// Codebook returns the loaded codebook, loading it on first use.
func (p *Provider) Codebook(ctx context.Context) (*Codebook, error) {
	if book := p.book.Load(); book != nil {
		return book, nil
	}

	v, err, _ := p.group.Do("codebook", func() (interface{}, error) {
		if book := p.book.Load(); book != nil {
			return book, nil
		}

		records, err := p.source.Load(ctx)
		if err != nil {
			p.logger.WithError(err).WithField("source", p.source.Name()).Error("Failed to load office codebook")
			return nil, apperrors.New("LoadCodebook", apperrors.ErrCodebookUnavailable, err.Error())
		}

		book := New(records)
		p.book.Store(book)

		p.logger.WithFields(logrus.Fields{
			"source":     p.source.Name(),
			"rows":       book.rows,
			"offices":    book.Len(),
			"duplicates": book.duplicates,
		}).Info("Office codebook loaded")
		return book, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Codebook), nil
}

// Resolve loads the codebook if needed and resolves localCode.
func (p *Provider) Resolve(ctx context.Context, localCode string) (models.OfficeAssignment, error) {
	book, err := p.Codebook(ctx)
	if err != nil {
		return models.OfficeAssignment{}, err
	}
	return book.Resolve(localCode)
}
