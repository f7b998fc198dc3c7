// Package autoclose closes mentor capacity in the roster once the month's
// mentee applications meet a mentor's hours: the month is removed from the
// mentor's availability and the roster entry is deprioritized.
package autoclose
