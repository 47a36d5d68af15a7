package crawler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/JakeFAU/hn-crawler/internal/hnapi"
)

// fakeSource serves items and pages from maps and counts every call.
type fakeSource struct {
	mu sync.Mutex

	items    map[int]hnapi.Item
	itemErrs map[int]error
	pages    map[string]string
	pageErrs map[string]error

	top         []int
	topFailures int // number of leading FetchTopStories calls that fail

	itemCalls map[int]int
	htmlCalls map[string]int
	topCalls  int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		items:     make(map[int]hnapi.Item),
		itemErrs:  make(map[int]error),
		pages:     make(map[string]string),
		pageErrs:  make(map[string]error),
		itemCalls: make(map[int]int),
		htmlCalls: make(map[string]int),
	}
}

func (f *fakeSource) addItem(item hnapi.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = item
}

func (f *fakeSource) FetchItem(_ context.Context, id int) (hnapi.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls[id]++
	if err, ok := f.itemErrs[id]; ok {
		return hnapi.Item{}, err
	}
	item, ok := f.items[id]
	if !ok {
		return hnapi.Item{}, fmt.Errorf("item %d: %w", id, hnapi.ErrNotFound)
	}
	return item, nil
}

func (f *fakeSource) FetchTopStories(_ context.Context, limit int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topCalls++
	if f.topCalls <= f.topFailures {
		return nil, &hnapi.StatusError{URL: "topstories", Code: 503}
	}
	ids := append([]int(nil), f.top...)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeSource) FetchHTML(_ context.Context, rawURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.htmlCalls[rawURL]++
	if err, ok := f.pageErrs[rawURL]; ok {
		return "", err
	}
	if body, ok := f.pages[rawURL]; ok {
		return body, nil
	}
	return "<html>" + rawURL + "</html>", nil
}

func (f *fakeSource) itemCallCount(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemCalls[id]
}

func (f *fakeSource) totalItemCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.itemCalls {
		total += n
	}
	return total
}

func (f *fakeSource) htmlCallCount(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.htmlCalls[rawURL]
}

// countingRecorder tallies Recorder events.
type countingRecorder struct {
	mu             sync.Mutex
	saved          int
	failed         map[string]int
	skipped        int
	commentFailed  int
	storiesStarted int
	storyOutcomes  map[string]int
	cycleOutcomes  map[string]int
	inFlight       int
	maxInFlight    int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		failed:        make(map[string]int),
		storyOutcomes: make(map[string]int),
		cycleOutcomes: make(map[string]int),
	}
}

func (r *countingRecorder) PageSaved(string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved++
}

func (r *countingRecorder) PageFailed(_ string, stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[stage]++
}

func (r *countingRecorder) PageSkipped(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

func (r *countingRecorder) CommentFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commentFailed++
}

func (r *countingRecorder) StoryStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storiesStarted++
}

func (r *countingRecorder) StoryFinished(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storyOutcomes[outcome]++
}

func (r *countingRecorder) CycleFinished(outcome string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycleOutcomes[outcome]++
}

func (r *countingRecorder) InFlight(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight += delta
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
}

// sequenceIDs hands out cycle-1, cycle-2, ...
type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "cycle-" + strconv.Itoa(s.n), nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}
