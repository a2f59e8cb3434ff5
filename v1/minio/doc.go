// Package minio stores original image files in a MinIO or S3 bucket.
//
// retrieval.ImageIndex keeps image bytes inline in the point payload by
// default. With retrieval.WithBlobStore(client) the bytes go to the bucket
// under "<collection>/<point id>.<format>" and the payload only carries the
// object key, which keeps vector store payloads small.
//
//	client, err := minio.NewClient(&minio.Config{
//		Endpoint:        "localhost:9000",
//		AccessKeyID:     "minio",
//		SecretAccessKey: "minio123",
//		BucketName:      "vecsearch-images",
//	}, log)
//	ix, err := retrieval.NewImageIndex(svc, embedder, retrieval.WithBlobStore(client))
//
// A missing object wraps vectordb.ErrNotFound; 5xx answers and transport
// failures wrap vectordb.ErrStoreUnavailable.
package minio
