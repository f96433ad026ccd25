// Package domain contains the core types and repository interfaces for the
// study tracker. It has no dependencies on transport or storage packages.
package domain
