// Package retrieval packages the two reference deployments of the vector
// core as ready-made indexes.
//
// TextIndex keeps short texts in the single-slot collection "text_collection"
// (384-d, cosine) with payload {"text": ...}. It can seed the five example
// sentences and search by free text.
//
// ImageIndex keeps JPEG and PNG files in the collection "images" with two
// 512-d cosine slots. Images are embedded on "image_vector" and stored as
// base64 under "image_data"; an optional caption populates "text_vector".
// Text queries are embedded with the same model and ranked against
// "image_vector", which makes the search cross-modal.
//
// With WithBlobStore the original files live in an object store under
// "<collection>/<id>.<format>" and the payload keeps only "image_key".
// ImageBytes resolves either layout.
//
// Result counts are clamped to 1..10 with a default of 5.
package retrieval
