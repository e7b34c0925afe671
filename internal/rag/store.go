package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/liao/course-rag/internal/parser"
)

// ErrCourseNotFound means fuzzy course-name resolution produced no
// acceptable match, or the catalog is empty.
var ErrCourseNotFound = errors.New("no matching course found")

const (
	catalogCollection = "course_catalog"
	contentCollection = "course_content"
)

// Store wraps two chromem-go collections: a catalog with one record per
// course (used only for name resolution and metadata lookups) and a
// content collection with one record per chunk (used for semantic search).
type Store struct {
	db      *chromem.DB
	catalog *chromem.Collection
	content *chromem.Collection
}

// SearchResult is one content match with the metadata needed to build a
// source label.
type SearchResult struct {
	Content      string
	CourseTitle  string
	LessonNumber int
	Similarity   float32
}

// lessonMeta is the serialized per-lesson entry kept in catalog metadata.
type lessonMeta struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// NewStore opens or creates a persistent vector store.
func NewStore(vectorsDir string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	db, err := chromem.NewPersistentDB(vectorsDir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	s, err := open(db, embedFunc)
	if err != nil {
		return nil, err
	}
	slog.Info("vector store loaded", "dir", vectorsDir,
		"courses", s.catalog.Count(), "chunks", s.content.Count())
	return s, nil
}

// NewMemoryStore creates a store that lives only in memory. Used by tests
// and throwaway ingestion runs.
func NewMemoryStore(embedFunc chromem.EmbeddingFunc) (*Store, error) {
	return open(chromem.NewDB(), embedFunc)
}

func open(db *chromem.DB, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	catalog, err := db.GetOrCreateCollection(catalogCollection, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("get/create catalog collection: %w", err)
	}
	content, err := db.GetOrCreateCollection(contentCollection, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("get/create content collection: %w", err)
	}
	return &Store{db: db, catalog: catalog, content: content}, nil
}

// AddCourse writes the catalog record and all content records for a
// parsed course. Callers must dedupe via HasCourse first; re-adding an
// existing title would orphan the previous records.
func (s *Store) AddCourse(ctx context.Context, course *parser.Course) error {
	lessons := make([]lessonMeta, 0, len(course.Lessons))
	for _, l := range course.Lessons {
		lessons = append(lessons, lessonMeta{Number: l.Number, Title: l.Title, Link: l.Link})
	}
	lessonsJSON, err := json.Marshal(lessons)
	if err != nil {
		return fmt.Errorf("marshal lessons: %w", err)
	}

	catalogDoc := chromem.Document{
		ID:      course.Title,
		Content: course.Title,
		Metadata: map[string]string{
			"title":      course.Title,
			"link":       course.Link,
			"instructor": course.Instructor,
			"lessons":    string(lessonsJSON),
		},
	}
	if err := s.catalog.AddDocuments(ctx, []chromem.Document{catalogDoc}, 1); err != nil {
		return fmt.Errorf("add catalog record: %w", err)
	}

	var docs []chromem.Document
	for _, lesson := range course.Lessons {
		for _, chunk := range lesson.Chunks {
			docs = append(docs, chromem.Document{
				ID:      fmt.Sprintf("%s#%d", course.Title, chunk.Index),
				Content: chunk.Text,
				Metadata: map[string]string{
					"course_title":  chunk.CourseTitle,
					"lesson_number": strconv.Itoa(chunk.LessonNumber),
					"chunk_index":   strconv.Itoa(chunk.Index),
				},
			})
		}
	}
	if len(docs) == 0 {
		return nil
	}
	if err := s.content.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add content records: %w", err)
	}
	return nil
}

// HasCourse reports whether a catalog record with this exact title exists.
func (s *Store) HasCourse(ctx context.Context, title string) (bool, error) {
	titles, err := s.CourseTitles(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range titles {
		if t == title {
			return true, nil
		}
	}
	return false, nil
}

// CourseTitles returns every course title in the catalog, sorted.
// chromem-go has no document enumeration, so this queries the catalog
// for all of its records through the same similarity lookup used for
// name resolution.
func (s *Store) CourseTitles(ctx context.Context) ([]string, error) {
	n := s.catalog.Count()
	if n == 0 {
		return nil, nil
	}
	results, err := s.catalog.Query(ctx, "course", n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.ID)
	}
	sort.Strings(titles)
	return titles, nil
}

// ResolveCourseName resolves a free-text course hint to the closest
// catalog title. The similarity is returned so callers can apply a
// minimum threshold. An empty catalog yields ErrCourseNotFound.
func (s *Store) ResolveCourseName(ctx context.Context, hint string) (string, float32, error) {
	if s.catalog.Count() == 0 {
		return "", 0, ErrCourseNotFound
	}
	results, err := s.catalog.Query(ctx, hint, 1, nil, nil)
	if err != nil {
		return "", 0, fmt.Errorf("resolve course name: %w", err)
	}
	if len(results) == 0 {
		return "", 0, ErrCourseNotFound
	}
	return results[0].ID, results[0].Similarity, nil
}

// Search queries the content collection, optionally restricted to a
// course title and/or lesson number. Zero matches is not an error: it
// returns an empty slice.
func (s *Store) Search(ctx context.Context, query string, courseTitle string, lessonNumber *int, topK int) ([]SearchResult, error) {
	n := s.content.Count()
	if n == 0 || topK <= 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}

	where := map[string]string{}
	if courseTitle != "" {
		where["course_title"] = courseTitle
	}
	if lessonNumber != nil {
		where["lesson_number"] = strconv.Itoa(*lessonNumber)
	}
	if len(where) == 0 {
		where = nil
	}

	docs, err := s.content.Query(ctx, query, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}

	results := make([]SearchResult, 0, len(docs))
	for _, d := range docs {
		lesson, _ := strconv.Atoi(d.Metadata["lesson_number"])
		results = append(results, SearchResult{
			Content:      d.Content,
			CourseTitle:  d.Metadata["course_title"],
			LessonNumber: lesson,
			Similarity:   d.Similarity,
		})
	}
	return results, nil
}

// LessonLink returns the stored link for a course's lesson, or "" when
// the course or lesson has none.
func (s *Store) LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	n := s.catalog.Count()
	if n == 0 {
		return "", nil
	}
	results, err := s.catalog.Query(ctx, courseTitle, n, nil, nil)
	if err != nil {
		return "", fmt.Errorf("lookup catalog record: %w", err)
	}
	for _, r := range results {
		if r.ID != courseTitle {
			continue
		}
		var lessons []lessonMeta
		if err := json.Unmarshal([]byte(r.Metadata["lessons"]), &lessons); err != nil {
			return "", fmt.Errorf("decode lessons metadata: %w", err)
		}
		for _, l := range lessons {
			if l.Number == lessonNumber {
				return l.Link, nil
			}
		}
		return "", nil
	}
	return "", nil
}

// CourseCount returns the number of catalog records.
func (s *Store) CourseCount() int {
	return s.catalog.Count()
}
