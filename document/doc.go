// Package document manages a PDF file as a chain of incremental updates.
//
// A Document implements [core.Document]: it resolves references against the
// newest update that defines an object, hands out new object numbers, and
// promotes objects of older updates into the open one when they are
// modified.
//
// # Loading
//
// Use [Open] with the bytes of a file:
//
//	doc, err := document.Open(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	catalog, err := doc.Root()
//
// The loader finds startxref by scanning backward from the end of the file,
// then follows /Prev through classic cross-reference tables and
// cross-reference streams, including hybrid files with /XRefStm. Every
// section becomes one sealed [Update]. Objects are parsed on first access,
// from their byte offset or from an object stream.
//
// # Editing
//
// Edits go through [core.Modify] and the typed fields of package core;
// both promote the objects they touch into the open update. New objects are
// registered with [Document.Append] or [core.MakeIndirect].
//
// # Saving
//
// [Document.Bytes], [Document.WriteTo] and [Document.Commit] append the
// open update as an incremental section: the bytes of loaded sections are
// kept unchanged, unmodified objects reuse the bytes they were parsed
// from, and compressed objects are packed into an object stream when the
// document writes cross-reference streams.
package document
