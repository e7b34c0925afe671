package parser

// Course is one ingested course document.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Lesson is a numbered section of a course. Numbers are unique within a
// course and non-decreasing in source order, but need not be contiguous.
type Lesson struct {
	Number int
	Title  string
	Link   string
	Chunks []Chunk
}

// Chunk is the atomic retrieval unit: a sentence-aligned slice of lesson
// text. Index is 0-based and unique across the whole course.
type Chunk struct {
	Index        int
	Text         string
	CourseTitle  string
	LessonNumber int
}

// ChunkCount returns the total number of chunks across all lessons.
func (c *Course) ChunkCount() int {
	n := 0
	for _, l := range c.Lessons {
		n += len(l.Chunks)
	}
	return n
}
