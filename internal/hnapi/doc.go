// Package hnapi is a thin client for the Hacker News Firebase API. It fetches
// items and the top story list as JSON and delegates raw page downloads to an
// HTMLFetcher so the crawl engine sees a single source of network data.
package hnapi
