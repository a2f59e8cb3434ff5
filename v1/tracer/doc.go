// Package tracer provides distributed tracing on OpenTelemetry.
//
// *Tracer implements vectordb.Tracer, so every vectordb.Service operation
// runs inside a "vectordb.<operation>" span carrying the collection name and,
// on failure, the recorded error.
//
// Basic Usage:
//
//	t, err := tracer.NewClient(tracer.Config{
//		ServiceName:  "vecsearch",
//		AppEnv:       "development",
//		EnableExport: true,
//		Endpoint:     "http://localhost:4318",
//	}, log)
//
//	ctx, span := t.StartSpan(ctx, "seed")
//	defer span.End()
//	t.SetAttributes(span, map[string]interface{}{"collection": "text_collection"})
//
// Cross-process propagation:
//
//	carrier := t.GetCarrier(ctx)          // inject
//	ctx = t.SetCarrierOnContext(ctx, carrier) // extract
//
// With EnableExport false the provider still creates real spans, so trace
// IDs appear in logs, but nothing is exported.
package tracer
