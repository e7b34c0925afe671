package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `Course Title: Intro to X
Course Link: https://example.com/intro-to-x
Course Instructor: Jane Smith

Lesson 0: Getting Started
Lesson Link: https://example.com/intro-to-x/lesson-0
Welcome to the course. This lesson covers the basics. We start from nothing.

Lesson 1: Core Concepts
Lesson Link: https://example.com/intro-to-x/lesson-1
Core concepts build on the basics. They matter a lot. Practice them daily.
`

func newTestLoader() *Loader {
	return NewLoader(NewChunker(800, 100))
}

func TestParseHeaderFields(t *testing.T) {
	course, err := newTestLoader().Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if course.Title != "Intro to X" {
		t.Errorf("title = %q", course.Title)
	}
	if course.Link != "https://example.com/intro-to-x" {
		t.Errorf("link = %q", course.Link)
	}
	if course.Instructor != "Jane Smith" {
		t.Errorf("instructor = %q", course.Instructor)
	}
}

func TestParseLessons(t *testing.T) {
	course, err := newTestLoader().Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(course.Lessons) != 2 {
		t.Fatalf("expected 2 lessons, got %d", len(course.Lessons))
	}
	l0, l1 := course.Lessons[0], course.Lessons[1]
	if l0.Number != 0 || l0.Title != "Getting Started" {
		t.Errorf("lesson 0 = %d %q", l0.Number, l0.Title)
	}
	if l1.Number != 1 || l1.Title != "Core Concepts" {
		t.Errorf("lesson 1 = %d %q", l1.Number, l1.Title)
	}
	if l0.Link != "https://example.com/intro-to-x/lesson-0" {
		t.Errorf("lesson 0 link = %q", l0.Link)
	}
}

func TestParseChunkMetadataAndPrefix(t *testing.T) {
	course, err := newTestLoader().Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	// Chunk indices are sequential across the whole course.
	next := 0
	for _, lesson := range course.Lessons {
		for _, ch := range lesson.Chunks {
			if ch.Index != next {
				t.Errorf("chunk index = %d, want %d", ch.Index, next)
			}
			if ch.CourseTitle != "Intro to X" {
				t.Errorf("chunk course title = %q", ch.CourseTitle)
			}
			if ch.LessonNumber != lesson.Number {
				t.Errorf("chunk lesson = %d, want %d", ch.LessonNumber, lesson.Number)
			}
			next++
		}
		if len(lesson.Chunks) == 0 {
			t.Fatalf("lesson %d has no chunks", lesson.Number)
		}
		first := lesson.Chunks[0].Text
		if !strings.Contains(first, "Intro to X") || !strings.Contains(first, lesson.Title) {
			t.Errorf("first chunk of lesson %d lacks context prefix: %q", lesson.Number, first)
		}
	}
}

func TestParseOverlapNeverCrossesLessons(t *testing.T) {
	// A small chunk size forces multiple chunks per lesson.
	loader := NewLoader(NewChunker(60, 20))
	course, err := loader.Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	for _, ch := range course.Lessons[1].Chunks {
		if strings.Contains(ch.Text, "covers the basics") {
			t.Errorf("lesson 1 chunk contains lesson 0 text: %q", ch.Text)
		}
	}
}

func TestParseMissingTitleFails(t *testing.T) {
	doc := "Course Instructor: Nobody\n\nLesson 0: Things\nSome text.\n"
	_, err := newTestLoader().Parse(strings.NewReader(doc))
	if !errors.Is(err, ErrNoCourseTitle) {
		t.Fatalf("expected ErrNoCourseTitle, got %v", err)
	}
}

func TestParseDecreasingLessonNumberFails(t *testing.T) {
	doc := "Course Title: Broken\n\nLesson 2: Later\nText one.\n\nLesson 1: Earlier\nText two.\n"
	_, err := newTestLoader().Parse(strings.NewReader(doc))
	if !errors.Is(err, ErrLessonOrder) {
		t.Fatalf("expected ErrLessonOrder, got %v", err)
	}
}

func TestParseDuplicateLessonNumberFails(t *testing.T) {
	doc := "Course Title: Broken\n\nLesson 1: One\nText.\n\nLesson 1: Again\nText.\n"
	_, err := newTestLoader().Parse(strings.NewReader(doc))
	if !errors.Is(err, ErrLessonOrder) {
		t.Fatalf("expected ErrLessonOrder, got %v", err)
	}
}

func TestLoadFileHTML(t *testing.T) {
	html := `<html><body>
<h1>Course Title: Web Course</h1>
<p>Course Instructor: Ada</p>
<h2>Lesson 0: Markup</h2>
<p>HTML structures documents. Tags nest inside tags.</p>
</body></html>`

	path := filepath.Join(t.TempDir(), "course.html")
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		t.Fatal(err)
	}

	course, err := newTestLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if course.Title != "Web Course" {
		t.Errorf("title = %q", course.Title)
	}
	if course.Instructor != "Ada" {
		t.Errorf("instructor = %q", course.Instructor)
	}
	if len(course.Lessons) != 1 || course.Lessons[0].Number != 0 {
		t.Fatalf("lessons = %+v", course.Lessons)
	}
	if len(course.Lessons[0].Chunks) == 0 {
		t.Fatal("lesson has no chunks")
	}
	if !strings.Contains(course.Lessons[0].Chunks[0].Text, "HTML structures documents") {
		t.Errorf("chunk text = %q", course.Lessons[0].Chunks[0].Text)
	}
}
