// Package crawler implements the recursive Hacker News crawl engine: the poll
// scheduler, the per-story crawl task, the comment tree walker, the per-scope
// URL registry and the download/persist step.
//
// Work forms a tree rooted at each story task. Every parent waits for the
// goroutines it spawns, so a story's scope is released only after all of its
// downloads and comment subtrees are done. Failures are logged and recorded
// at the smallest unit of work and never reach siblings or the poll loop.
package crawler
