// Package library holds the compound write operations over the catalogue,
// the member library overlays and the series registry. The store offers no
// multi-record transactions here, so each operation states what is left
// behind when it fails partway.
package library

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/vrsandeep/shelf-go/internal/aggregate"
	"github.com/vrsandeep/shelf-go/internal/models"
	"github.com/vrsandeep/shelf-go/internal/store"
)

// CatalogueStore is the family-wide book catalogue.
type CatalogueStore interface {
	GetBook(familyID, id string) (*models.CatalogueBook, error)
	FindBookByExternalID(familyID, externalID string) (*models.CatalogueBook, error)
	FindBookByTitleAuthor(familyID, title, author string) (*models.CatalogueBook, error)
	ListBooksInSeries(familyID, seriesID string) ([]models.CatalogueBook, error)
	CreateBook(b *models.CatalogueBook) error
	UpdateBook(familyID, id string, upd models.BookUpdate) error
	DeleteBook(familyID, id string) error
	CountEntriesForBook(familyID, bookID string) (int, error)
}

// LibraryStore holds the per-member library entries.
type LibraryStore interface {
	GetEntry(familyID, memberID, id string) (*models.LibraryEntry, error)
	FindEntryByBook(familyID, memberID, bookID string) (*models.LibraryEntry, error)
	CreateEntry(e *models.LibraryEntry) error
	UpdateEntryStatus(familyID, memberID, id string, status models.ReadingStatus) error
	DeleteEntry(familyID, memberID, id string) error
}

// SeriesStore is the family series registry.
type SeriesStore interface {
	GetSeries(familyID, id string) (*models.Series, error)
	FindSeriesByName(familyID, name string) (*models.Series, error)
	CreateSeries(sr *models.Series) error
	UpdateSeries(familyID, id string, in models.SeriesInput) error
	DeleteSeries(familyID, id string) error
}

// Notifier receives a change event after every successful write.
type Notifier interface {
	Publish(ev models.ChangeEvent)
}

// CoverRemover deletes stored cover images.
type CoverRemover interface {
	Delete(familyID, bookID string) error
}

// Deps are the collaborators of a Service. Notifier and Covers are optional.
type Deps struct {
	Catalogue CatalogueStore
	Library   LibraryStore
	Series    SeriesStore
	Notifier  Notifier
	Covers    CoverRemover
}

// Service performs the mutations requested by members.
type Service struct {
	catalogue CatalogueStore
	entries   LibraryStore
	series    SeriesStore
	notifier  Notifier
	covers    CoverRemover
}

// NewService creates a new Service.
func NewService(deps Deps) *Service {
	return &Service{
		catalogue: deps.Catalogue,
		entries:   deps.Library,
		series:    deps.Series,
		notifier:  deps.Notifier,
		covers:    deps.Covers,
	}
}

// NewStoreService wires a Service directly onto a Store.
func NewStoreService(st *store.Store, notifier Notifier, covers CoverRemover) *Service {
	return NewService(Deps{Catalogue: st, Library: st, Series: st, Notifier: notifier, Covers: covers})
}

// BookDescriptor describes a book a member wants in their library.
type BookDescriptor struct {
	Title       string               `json:"title"`
	Author      string               `json:"author"`
	ExternalID  *string              `json:"external_id,omitempty"`
	CoverURL    *string              `json:"cover_url,omitempty"`
	SeriesID    *string              `json:"series_id,omitempty"`
	SeriesName  *string              `json:"series_name,omitempty"`
	SeriesOrder *int                 `json:"series_order,omitempty"`
	Genres      []string             `json:"genres,omitempty"`
	Status      models.ReadingStatus `json:"status,omitempty"`
}

// AddResult is the outcome of AddBookToLibrary.
type AddResult struct {
	BookID       string               `json:"book_id"`
	EntryID      string               `json:"entry_id"`
	Status       models.ReadingStatus `json:"status"`
	BookCreated  bool                 `json:"book_created"`
	EntryCreated bool                 `json:"entry_created"`
	SeriesID     *string              `json:"series_id,omitempty"`
}

// BulkResult tallies a bulk add. Skipped counts books already present.
type BulkResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

func requireFamily(ctx aggregate.AppContext) error {
	if ctx.FamilyID == "" {
		return ErrNoFamily
	}
	return nil
}

func requireMember(ctx aggregate.AppContext) error {
	if err := requireFamily(ctx); err != nil {
		return err
	}
	if !ctx.HasMember() {
		return ErrNoMember
	}
	return nil
}

func (s *Service) publish(ctx aggregate.AppContext, collection, op, id string) {
	if s.notifier == nil {
		return
	}
	ev := models.ChangeEvent{Collection: collection, Op: op, FamilyID: ctx.FamilyID, ID: id}
	if collection == models.CollectionLibrary && ctx.HasMember() {
		ev.MemberID = *ctx.MemberID
	}
	s.notifier.Publish(ev)
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func cleanGenres(genres []string) []string {
	var out []string
	for _, g := range genres {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

func normalizeStatus(status models.ReadingStatus) (models.ReadingStatus, error) {
	if status == "" {
		return models.StatusToRead, nil
	}
	parsed, err := models.ParseReadingStatus(string(status))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return parsed, nil
}

// AddBookToLibrary finds or creates the catalogue book described by desc,
// then adds it to the active member's library unless it is already there.
// A series named in desc that does not exist yet is created.
//
// If the entry insert fails, a book or series created by this call stays in
// the catalogue; calling again with the same descriptor reuses them.
func (s *Service) AddBookToLibrary(ctx aggregate.AppContext, desc BookDescriptor) (*AddResult, error) {
	if err := requireMember(ctx); err != nil {
		return nil, err
	}
	status, err := normalizeStatus(desc.Status)
	if err != nil {
		return nil, err
	}
	book, created, err := s.findOrCreateBook(ctx, desc)
	if err != nil {
		return nil, err
	}

	result := &AddResult{BookID: book.ID, BookCreated: created, SeriesID: book.SeriesID}
	entry, entryCreated, err := s.ensureEntry(ctx, book.ID, status)
	if err != nil {
		return result, err
	}
	result.EntryID = entry.ID
	result.Status = entry.Status
	result.EntryCreated = entryCreated
	if entryCreated {
		s.publish(ctx, models.CollectionLibrary, "create", entry.ID)
	}
	return result, nil
}

// AddBookToCatalogue finds or creates the catalogue book described by desc
// without touching any member library. The bool reports whether the book
// was created. desc.Status is ignored.
func (s *Service) AddBookToCatalogue(ctx aggregate.AppContext, desc BookDescriptor) (*models.CatalogueBook, bool, error) {
	if err := requireFamily(ctx); err != nil {
		return nil, false, err
	}
	return s.findOrCreateBook(ctx, desc)
}

func (s *Service) findOrCreateBook(ctx aggregate.AppContext, desc BookDescriptor) (*models.CatalogueBook, bool, error) {
	title := strings.TrimSpace(desc.Title)
	author := strings.TrimSpace(desc.Author)
	if title == "" || author == "" {
		return nil, false, invalidf("title and author are required")
	}
	if desc.SeriesOrder != nil && *desc.SeriesOrder < 1 {
		return nil, false, invalidf("series order must be positive")
	}
	externalID := trimmedOrNil(desc.ExternalID)

	book, err := s.findBook(ctx.FamilyID, externalID, title, author)
	if err != nil {
		return nil, false, err
	}
	if book != nil {
		return book, false, nil
	}

	book = &models.CatalogueBook{
		FamilyID:   ctx.FamilyID,
		Title:      title,
		Author:     author,
		ExternalID: externalID,
		CoverURL:   trimmedOrNil(desc.CoverURL),
		Genres:     cleanGenres(desc.Genres),
		AddedBy:    ctx.MemberID,
	}
	if err := s.linkNewBookToSeries(ctx, book, desc); err != nil {
		return nil, false, err
	}
	if err := s.catalogue.CreateBook(book); err != nil {
		return nil, false, fmt.Errorf("failed to create catalogue book: %w", err)
	}
	s.publish(ctx, models.CollectionCatalogue, "create", book.ID)
	return book, true, nil
}

func (s *Service) findBook(familyID string, externalID *string, title, author string) (*models.CatalogueBook, error) {
	if externalID != nil {
		book, err := s.catalogue.FindBookByExternalID(familyID, *externalID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up book by external id: %w", err)
		}
		return book, nil
	}
	book, err := s.catalogue.FindBookByTitleAuthor(familyID, title, author)
	if err != nil {
		return nil, fmt.Errorf("failed to look up book by title: %w", err)
	}
	return book, nil
}

// linkNewBookToSeries resolves the series named by desc and sets the
// book's series id and ordinal. Without an explicit ordinal the book is
// appended after the books already in the series.
func (s *Service) linkNewBookToSeries(ctx aggregate.AppContext, book *models.CatalogueBook, desc BookDescriptor) error {
	var series *models.Series
	var err error

	switch {
	case trimmedOrNil(desc.SeriesID) != nil:
		series, err = s.series.GetSeries(ctx.FamilyID, strings.TrimSpace(*desc.SeriesID))
		if err != nil {
			return fmt.Errorf("failed to load series: %w", err)
		}
		if series == nil {
			return invalidf("series %q does not exist", *desc.SeriesID)
		}
	case trimmedOrNil(desc.SeriesName) != nil:
		name := strings.TrimSpace(*desc.SeriesName)
		series, err = s.series.FindSeriesByName(ctx.FamilyID, name)
		if err != nil {
			return fmt.Errorf("failed to look up series: %w", err)
		}
		if series == nil {
			series = &models.Series{FamilyID: ctx.FamilyID, Name: name, CreatedBy: ctx.MemberID}
			if err := s.series.CreateSeries(series); err != nil {
				return fmt.Errorf("failed to create series: %w", err)
			}
			s.publish(ctx, models.CollectionSeries, "create", series.ID)
		}
	default:
		return nil
	}

	seriesID := series.ID
	book.SeriesID = &seriesID
	book.SeriesOrder = desc.SeriesOrder
	if book.SeriesOrder == nil {
		existing, err := s.catalogue.ListBooksInSeries(ctx.FamilyID, seriesID)
		if err != nil {
			return fmt.Errorf("failed to list series books: %w", err)
		}
		next := aggregate.NextSeriesOrder(existing)
		book.SeriesOrder = &next
	}
	return nil
}

// ensureEntry returns the member's entry for bookID, creating it with
// status when missing. A concurrent insert that wins the race is reported
// as the existing entry.
func (s *Service) ensureEntry(ctx aggregate.AppContext, bookID string, status models.ReadingStatus) (*models.LibraryEntry, bool, error) {
	memberID := *ctx.MemberID
	existing, err := s.entries.FindEntryByBook(ctx.FamilyID, memberID, bookID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check library entry: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	entry := &models.LibraryEntry{FamilyID: ctx.FamilyID, MemberID: memberID, BookID: bookID, Status: status}
	err = s.entries.CreateEntry(entry)
	if errors.Is(err, store.ErrDuplicateEntry) {
		existing, err = s.entries.FindEntryByBook(ctx.FamilyID, memberID, bookID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to reload library entry: %w", err)
		}
		if existing == nil {
			return nil, false, fmt.Errorf("library entry for book %s vanished after duplicate insert", bookID)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create library entry: %w", err)
	}
	return entry, true, nil
}

// RemoveBook deletes one of the active member's library entries. When
// catalogueBookID is set, the catalogue book and its stored cover are
// deleted as well, but only after the entry is gone. Other members'
// entries for that book are not checked and are left dangling.
func (s *Service) RemoveBook(ctx aggregate.AppContext, entryID string, catalogueBookID *string) error {
	if err := requireMember(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(entryID) == "" {
		return invalidf("entry id is required")
	}
	if err := s.entries.DeleteEntry(ctx.FamilyID, *ctx.MemberID, entryID); err != nil {
		return fmt.Errorf("failed to delete library entry: %w", err)
	}
	s.publish(ctx, models.CollectionLibrary, "delete", entryID)

	bookID := trimmedOrNil(catalogueBookID)
	if bookID == nil {
		return nil
	}
	return s.DeleteCatalogueBook(ctx, *bookID)
}

// DeleteCatalogueBook removes a book and its stored cover from the family
// catalogue. Library entries still pointing at it are left dangling; the
// prune job removes them later.
func (s *Service) DeleteCatalogueBook(ctx aggregate.AppContext, bookID string) error {
	if err := requireFamily(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(bookID) == "" {
		return invalidf("book id is required")
	}
	if n, err := s.catalogue.CountEntriesForBook(ctx.FamilyID, bookID); err == nil && n > 0 {
		log.Printf("Warning: deleting book %s still referenced by %d library entries", bookID, n)
	}
	if err := s.catalogue.DeleteBook(ctx.FamilyID, bookID); err != nil {
		return fmt.Errorf("failed to delete catalogue book: %w", err)
	}
	if s.covers != nil {
		if err := s.covers.Delete(ctx.FamilyID, bookID); err != nil {
			log.Printf("Failed to delete cover for book %s: %v", bookID, err)
		}
	}
	s.publish(ctx, models.CollectionCatalogue, "delete", bookID)
	return nil
}

// AddSeriesToLibrary adds every catalogue book of a series to the active
// member's library with defaultStatus. Books already present are skipped.
// On failure it stops, keeps the entries written so far and returns a
// *BulkError holding the counts up to that point. Calling it again
// completes the rest.
func (s *Service) AddSeriesToLibrary(ctx aggregate.AppContext, seriesID string, defaultStatus models.ReadingStatus) (BulkResult, error) {
	var result BulkResult
	if err := requireMember(ctx); err != nil {
		return result, err
	}
	if strings.TrimSpace(seriesID) == "" {
		return result, invalidf("series id is required")
	}
	status, err := normalizeStatus(defaultStatus)
	if err != nil {
		return result, err
	}

	books, err := s.catalogue.ListBooksInSeries(ctx.FamilyID, seriesID)
	if err != nil {
		return result, fmt.Errorf("failed to list series books: %w", err)
	}

	defer func() {
		if result.Added > 0 {
			s.publish(ctx, models.CollectionLibrary, "create", seriesID)
		}
	}()
	for _, b := range books {
		_, created, err := s.ensureEntry(ctx, b.ID, status)
		if err != nil {
			return result, &BulkError{Result: result, Err: err}
		}
		if created {
			result.Added++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// ChangeBookStatus sets the status of one library entry.
func (s *Service) ChangeBookStatus(ctx aggregate.AppContext, entryID string, status models.ReadingStatus) error {
	if err := requireMember(ctx); err != nil {
		return err
	}
	if !status.Valid() {
		return invalidf("unknown reading status %q", status)
	}
	if err := s.entries.UpdateEntryStatus(ctx.FamilyID, *ctx.MemberID, entryID, status); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	s.publish(ctx, models.CollectionLibrary, "update", entryID)
	return nil
}

// CycleBookStatus advances an entry to the next status in the cycle and
// returns the new status.
func (s *Service) CycleBookStatus(ctx aggregate.AppContext, entryID string) (models.ReadingStatus, error) {
	if err := requireMember(ctx); err != nil {
		return "", err
	}
	entry, err := s.entries.GetEntry(ctx.FamilyID, *ctx.MemberID, entryID)
	if err != nil {
		return "", fmt.Errorf("failed to load library entry: %w", err)
	}
	if entry == nil {
		return "", ErrNotFound
	}
	next := entry.Status.Next()
	if err := s.ChangeBookStatus(ctx, entryID, next); err != nil {
		return "", err
	}
	return next, nil
}

// UpdateBook applies a partial update to a catalogue book. Linking a book
// to a series without an ordinal appends it to that series.
func (s *Service) UpdateBook(ctx aggregate.AppContext, bookID string, upd models.BookUpdate) error {
	if err := requireFamily(ctx); err != nil {
		return err
	}
	if upd.IsEmpty() {
		return invalidf("nothing to update")
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return invalidf("title cannot be empty")
	}
	if upd.Author != nil && strings.TrimSpace(*upd.Author) == "" {
		return invalidf("author cannot be empty")
	}
	if upd.SeriesOrder != nil && *upd.SeriesOrder < 1 {
		return invalidf("series order must be positive")
	}
	if upd.Genres != nil {
		genres := cleanGenres(*upd.Genres)
		upd.Genres = &genres
	}

	if !upd.ClearSeries && upd.SeriesID != nil {
		seriesID := strings.TrimSpace(*upd.SeriesID)
		series, err := s.series.GetSeries(ctx.FamilyID, seriesID)
		if err != nil {
			return fmt.Errorf("failed to load series: %w", err)
		}
		if series == nil {
			return invalidf("series %q does not exist", seriesID)
		}
		upd.SeriesID = &seriesID
		if upd.SeriesOrder == nil {
			order, err := s.nextOrderExcluding(ctx.FamilyID, seriesID, bookID)
			if err != nil {
				return err
			}
			upd.SeriesOrder = &order
		}
	}

	if err := s.catalogue.UpdateBook(ctx.FamilyID, bookID, upd); err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	s.publish(ctx, models.CollectionCatalogue, "update", bookID)
	return nil
}

func (s *Service) nextOrderExcluding(familyID, seriesID, bookID string) (int, error) {
	books, err := s.catalogue.ListBooksInSeries(familyID, seriesID)
	if err != nil {
		return 0, fmt.Errorf("failed to list series books: %w", err)
	}
	var others []models.CatalogueBook
	for _, b := range books {
		if b.ID == bookID {
			// Already in this series; keep its position.
			if b.SeriesOrder != nil {
				return *b.SeriesOrder, nil
			}
			continue
		}
		others = append(others, b)
	}
	return aggregate.NextSeriesOrder(others), nil
}

func validateSeriesInput(in models.SeriesInput) (models.SeriesInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, invalidf("series name is required")
	}
	if in.TotalBooks != nil && *in.TotalBooks < 0 {
		return in, invalidf("total books cannot be negative")
	}
	in.Genre = trimmedOrNil(in.Genre)
	return in, nil
}

// CreateSeries adds a series to the family registry.
func (s *Service) CreateSeries(ctx aggregate.AppContext, in models.SeriesInput) (*models.Series, error) {
	if err := requireFamily(ctx); err != nil {
		return nil, err
	}
	in, err := validateSeriesInput(in)
	if err != nil {
		return nil, err
	}
	series := &models.Series{
		FamilyID:   ctx.FamilyID,
		Name:       in.Name,
		TotalBooks: in.TotalBooks,
		Genre:      in.Genre,
		CreatedBy:  ctx.MemberID,
	}
	if err := s.series.CreateSeries(series); err != nil {
		return nil, fmt.Errorf("failed to create series: %w", err)
	}
	s.publish(ctx, models.CollectionSeries, "create", series.ID)
	return series, nil
}

// EditSeries replaces the name, declared total and genre of a series.
func (s *Service) EditSeries(ctx aggregate.AppContext, seriesID string, in models.SeriesInput) error {
	if err := requireFamily(ctx); err != nil {
		return err
	}
	in, err := validateSeriesInput(in)
	if err != nil {
		return err
	}
	if err := s.series.UpdateSeries(ctx.FamilyID, seriesID, in); err != nil {
		return fmt.Errorf("failed to update series: %w", err)
	}
	s.publish(ctx, models.CollectionSeries, "update", seriesID)
	return nil
}

// DeleteSeries removes a series from the registry. Books linked to it keep
// the dangling link; readers treat them as having no series.
func (s *Service) DeleteSeries(ctx aggregate.AppContext, seriesID string) error {
	if err := requireFamily(ctx); err != nil {
		return err
	}
	if err := s.series.DeleteSeries(ctx.FamilyID, seriesID); err != nil {
		return fmt.Errorf("failed to delete series: %w", err)
	}
	s.publish(ctx, models.CollectionSeries, "delete", seriesID)
	return nil
}
