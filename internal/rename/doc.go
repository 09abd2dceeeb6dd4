// Package rename turns an uploaded file plus per-user settings into a final
// filename and moves the downloaded bytes to it.
//
// Name generation ([GenerateName]) is pure: it dispatches on [Mode], runs the
// template, manual or replace strategy from package naming, then applies the
// user's replacement rules once more. [Renamer] adds the I/O around it:
// download through a [Transfer], claim a collision-free name in the
// destination directory, move. Only transfer failures are reported as
// errors; malformed templates and undetectable variables degrade to
// defaults.
package rename
