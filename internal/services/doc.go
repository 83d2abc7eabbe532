// Package services defines the Platform interface for the video-hosting
// platform and its YouTube Data API v3 implementation.
//
// Platform is deliberately narrow: the sync engine only needs playlist
// resolution, recent uploads, current playlist contents, and item insertion.
// A fake in-memory implementation lives in internal/testing for unit tests.
package services
