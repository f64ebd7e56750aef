// Package core provides the PDF object model: typed objects, the byte-level
// parser and serializer, and the ownership rules that let objects move
// through the generations of an incrementally updated file.
//
// # Object Types
//
// Every PDF value satisfies the [Object] interface:
//
//   - [Null], [Boolean], [Number] and [Name] are scalars
//   - [LiteralString] and [HexString] hold string bytes and decode text
//     strings
//   - [Array] and [Dictionary] are direct containers
//   - [Stream] is a dictionary plus a raw payload
//   - [Reference] points to an [IndirectObject], which wraps one value
//   - [Comment] holds a % comment
//
// Objects keep the bytes they were parsed from and write them back verbatim
// until they are modified, so untouched regions of a file round-trip
// byte for byte.
//
// # Ownership
//
// An object is freestanding, held by a direct container, or the value of an
// indirect object. Objects parsed from or created in a document belong to one
// [Update]. [Modify] returns the instance a change must be applied to: when
// the object belongs to an older update, its indirect object is promoted into
// the current one first. Mutating methods do the same on their own: a
// change to an object of an older update lands on its counterpart in the
// current update, and the receiver keeps the old version.
//
// # Parsing
//
// [ParseObject] and [ParseIndirectObject] read objects from a [Cursor];
// [FromPDF] and [FromPDFString] add a type check. [Write] and [ToPDF]
// serialize into a [Sink].
//
// # Typed Fields
//
// [Field] and [Value] describe dictionary entries with their type, whether
// they are required and how they are stored. [Maybe] materializes optional
// entries on demand.
//
// # Streams
//
// [Stream.Decode] decrypts and then runs the filter chain declared by the
// Filter and DecodeParms entries; [Stream.Encode] filters and then encrypts.
// The filters themselves live in package filters.
package core
