// Package pipeline renames directories of files outside the chat bot.
//
// Batch mode ([Run]) discovers every supported file under the input
// directory, names it with the same [rename.GenerateName] rules the bot
// uses, and copies it into the mirrored location under the output
// directory. Input files are never modified.
//
// Watch mode ([Watch]) does the same for files as they appear, using
// fsnotify events with a polling fallback. A file is taken once it has been
// quiet for the configured settle time.
package pipeline
