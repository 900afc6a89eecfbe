package imagesim

import "github.com/botirk38/imagesim/types"

// Model is the embedding model interface consumed by an Index. See
// providers for ready-made implementations.
type Model = types.Model

// Record is one indexed entry of a rebuilt collection.
type Record = types.Record
