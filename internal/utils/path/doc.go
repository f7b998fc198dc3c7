// Package pathutils provides filesystem path helpers shared by commands.
package pathutils
