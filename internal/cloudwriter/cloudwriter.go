package cloudwriter

// CloudWriter receives one object's bytes and stores it on Close.
type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

type CloudWriterFactory interface {
	NewWriter(bucket, objectPath string) (CloudWriter, error)
}
