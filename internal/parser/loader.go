package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoCourseTitle marks a document whose header has no Course Title
	// line. The document is unrecoverable; ingestion moves on to the next.
	ErrNoCourseTitle = errors.New("course document has no title")

	// ErrLessonOrder marks a lesson marker whose number is not strictly
	// greater than the previous one.
	ErrLessonOrder = errors.New("lesson numbers must increase in source order")
)

var lessonRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.+?)\s*$`)

// Loader parses course documents into Courses with chunked lessons.
type Loader struct {
	chunker *Chunker
}

func NewLoader(chunker *Chunker) *Loader {
	return &Loader{chunker: chunker}
}

// LoadFile parses a course document from disk. HTML files are reduced to
// plain text first; everything else is read as-is.
func (l *Loader) LoadFile(path string) (*Course, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		text, err := ExtractHTMLText(path)
		if err != nil {
			return nil, err
		}
		return l.Parse(strings.NewReader(text))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return l.Parse(f)
}

// Parse reads a course document: a header of Course Title / Course Link /
// Course Instructor lines (title required) followed by Lesson N: sections.
// Each lesson body is chunked independently so overlap never crosses a
// lesson boundary, and the first chunk of every lesson is prefixed with
// the course and lesson titles so an isolated chunk still names its origin.
func (l *Loader) Parse(r io.Reader) (*Course, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	course := &Course{}
	var currentLesson *Lesson
	var body strings.Builder
	lastNumber := -1
	chunkIndex := 0

	flushLesson := func() {
		if currentLesson == nil {
			return
		}
		texts := l.chunker.Chunk(body.String())
		for i, text := range texts {
			if i == 0 {
				text = fmt.Sprintf("Course %s, Lesson %d: %s. %s",
					course.Title, currentLesson.Number, currentLesson.Title, text)
			}
			currentLesson.Chunks = append(currentLesson.Chunks, Chunk{
				Index:        chunkIndex,
				Text:         text,
				CourseTitle:  course.Title,
				LessonNumber: currentLesson.Number,
			})
			chunkIndex++
		}
		course.Lessons = append(course.Lessons, *currentLesson)
		currentLesson = nil
		body.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()

		if m := lessonRe.FindStringSubmatch(line); m != nil {
			if course.Title == "" {
				return nil, ErrNoCourseTitle
			}
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("lesson number %q: %w", m[1], err)
			}
			if number <= lastNumber {
				return nil, fmt.Errorf("lesson %d after lesson %d: %w", number, lastNumber, ErrLessonOrder)
			}
			flushLesson()
			lastNumber = number
			currentLesson = &Lesson{Number: number, Title: m[2]}
			continue
		}

		if currentLesson != nil {
			if link, ok := strings.CutPrefix(line, "Lesson Link:"); ok && body.Len() == 0 {
				currentLesson.Link = strings.TrimSpace(link)
				continue
			}
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}

		// Still in the header; preamble between header and first marker
		// is ignored.
		switch {
		case strings.HasPrefix(line, "Course Title:"):
			course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if course.Title == "" {
		return nil, ErrNoCourseTitle
	}
	flushLesson()
	return course, nil
}
