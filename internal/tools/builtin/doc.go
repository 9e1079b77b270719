// Package builtin provides the standard tool set the agent runs with:
// memory logging, user profile updates, soul evolution, shell execution,
// file operations, the secrets vault, web search, task scheduling and
// memory search. Browser automation registers separately from
// internal/browser.
package builtin
