package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/liquidaciones/internal/encoding"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer/cabal"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer/nacion"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

// Observer is told about every document the service produces, valid or not.
type Observer interface {
	ObserveDocument(doc settlement.Document)
}

type Service struct {
	cabalImporter  Importer
	nacionImporter Importer
	observer       Observer
}

type Option func(*Service)

func WithCabal(i Importer) Option {
	return func(s *Service) {
		s.cabalImporter = i
	}
}

func WithNacion(i Importer) Option {
	return func(s *Service) {
		s.nacionImporter = i
	}
}

func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{
		cabalImporter:  cabal.New(),
		nacionImporter: nacion.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Import parses r as format. With FormatAuto the text is decoded once and
// sniffed with Detect before being handed to the matching parser.
func (s *Service) Import(format Format, r io.Reader) (settlement.Document, error) {
	if format == FormatAuto {
		text, err := encoding.ReadText(r)
		if err != nil {
			return settlement.Document{}, fmt.Errorf("read report: %w", err)
		}

		detected, err := Detect(text)
		if err != nil {
			return settlement.Document{}, err
		}

		format = Format(detected)
		r = strings.NewReader(text)
	}

	var importer Importer

	switch format {
	case FormatCabal:
		importer = s.cabalImporter
	case FormatNacion:
		importer = s.nacionImporter
	default:
		return settlement.Document{}, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	doc, err := importer.Parse(r)
	if err != nil && !errors.Is(err, settlement.ErrUnidentified) {
		return doc, err
	}

	if s.observer != nil {
		s.observer.ObserveDocument(doc)
	}

	return doc, err
}
