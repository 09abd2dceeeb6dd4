// Package naming turns filenames and user templates into new filenames.
//
// The pieces are independent and pure, except for [CollisionResolver]:
//
//   - [ExtractVariables] pulls title, season, episode and quality out of an
//     original filename; every other variable keeps its default.
//   - [ApplyTemplate] substitutes "{name}" placeholders in one pass and
//     sanitizes the result. [ValidateTemplate] reports syntax problems.
//   - [Sanitize] makes a string safe as a filename under one of two
//     profiles (template output or manual caption).
//   - [ReplacementRules] apply literal find/replace pairs in order.
//   - [CollisionResolver] picks a free name in a directory, adding "_1",
//     "_2", ... before the extension.
package naming
