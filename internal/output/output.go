package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/cloudwriter"
	"github.com/chrisdamba/dispatchsim/internal/logger"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

type CSVOutput struct {
	basePath string
	folder   string
	files    map[string]*os.File
	writers  map[string]*csv.Writer
	headers  map[string][]string
}

type JSONOutput struct {
	basePath string
	folder   string
	files    map[string]*os.File
}

type ParquetOutput struct {
	basePath           string
	folder             string
	mu                 sync.Mutex
	writers            map[string]*writer.ParquetWriter
	files              map[string]source.ParquetFile
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
	log                logger.Logger
}

type ConsoleOutput struct {
	out io.Writer
}

type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewCSVOutput(basePath, folder string) *CSVOutput {
	return &CSVOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
		writers:  make(map[string]*csv.Writer),
		headers:  make(map[string][]string),
	}
}

func NewJSONOutput(basePath, folder string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
}

// NewParquetOutput writes under basePath/folder, or to the bucket of factory
// when it is not nil.
func NewParquetOutput(basePath, folder string, factory cloudwriter.CloudWriterFactory, bucket string, log logger.Logger) *ParquetOutput {
	p := &ParquetOutput{
		basePath:           basePath,
		folder:             folder,
		writers:            make(map[string]*writer.ParquetWriter),
		files:              make(map[string]source.ParquetFile),
		cloudWriterFactory: factory,
		cloudBucketName:    bucket,
		log:                log,
	}
	if factory == nil {
		// clean up existing .parquet files
		p.cleanup()
	}
	return p
}

// NewConsoleOutput writes to out, or stdout when out is nil.
func NewConsoleOutput(out io.Writer) *ConsoleOutput {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleOutput{out: out}
}

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{
		cloudWriter: cloudWriter,
		offset:      0,
	}
}

func (c *CloudParquetFile) Open(name string) (source.ParquetFile, error) {
	// objects are written once, the current instance is already set up for it
	return c, nil
}

func (c *CloudParquetFile) Create(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	case io.SeekEnd:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read(p []byte) (n int, err error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (n int, err error) {
	n, err = c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}

// partition decodes a message and returns the hour partition its timestamp
// falls in.
func partition(topic string, msg []byte) (map[string]interface{}, string, error) {
	var event map[string]interface{}
	if err := json.Unmarshal(msg, &event); err != nil {
		return nil, "", err
	}

	timestamp, ok := event["timestamp"].(float64)
	if !ok {
		return nil, "", fmt.Errorf("invalid timestamp")
	}

	eventTime := time.Unix(int64(timestamp), 0).UTC()
	year, month, day := eventTime.Date()
	hour := eventTime.Hour()

	return event, fmt.Sprintf("year=%d/month=%02d/day=%02d/hour=%02d", year, month, day, hour), nil
}

func (c *CSVOutput) WriteMessage(topic string, msg []byte) error {
	event, partitionPath, err := partition(topic, msg)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(c.basePath, c.folder, topic, partitionPath)
	if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
		return err
	}

	fileKey := fmt.Sprintf("%s_%s", topic, partitionPath)
	csvWriter, ok := c.writers[fileKey]
	if !ok {
		file, err := os.Create(filepath.Join(fullPath, "data.csv"))
		if err != nil {
			return err
		}
		c.files[fileKey] = file
		csvWriter = csv.NewWriter(file)
		c.writers[fileKey] = csvWriter

		// new file, write the headers first
		headers := c.getHeaders(event)
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
		c.headers[fileKey] = headers
	}

	row := make([]string, len(c.headers[fileKey]))
	for i, header := range c.headers[fileKey] {
		if value, ok := event[header]; ok {
			row[i] = formatValue(value)
		}
	}
	if err := csvWriter.Write(row); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// formatValue renders JSON numbers without exponent notation.
func formatValue(value interface{}) string {
	if f, ok := value.(float64); ok {
		if f == float64(int64(f)) {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%g", f)
	}
	return fmt.Sprintf("%v", value)
}

func (c *CSVOutput) getHeaders(event map[string]interface{}) []string {
	var headers []string
	for key := range event {
		headers = append(headers, key)
	}
	sort.Strings(headers)
	return headers
}

func (c *CSVOutput) Close() error {
	var lastErr error
	for key, csvWriter := range c.writers {
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			lastErr = err
		}
		if err := c.files[key].Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	event, partitionPath, err := partition(topic, msg)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(j.basePath, j.folder, topic, partitionPath)
	if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
		return err
	}

	fileKey := fmt.Sprintf("%s_%s", topic, partitionPath)
	file, ok := j.files[fileKey]
	if !ok {
		file, err = os.Create(filepath.Join(fullPath, "data.json"))
		if err != nil {
			return err
		}
		j.files[fileKey] = file
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := file.Write(jsonData); err != nil {
		return err
	}
	_, err = file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	var lastErr error
	for _, file := range j.files {
		if err := file.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	_, partitionPath, err := partition(topic, msg)
	if err != nil {
		return err
	}
	record, err := decodeRecord(topic, msg)
	if err != nil {
		return err
	}

	writerKey := fmt.Sprintf("%s_%s", topic, partitionPath)
	p.mu.Lock()
	defer p.mu.Unlock()
	pw, ok := p.writers[writerKey]
	if !ok {
		pw, err = p.createNewWriter(writerKey, topic, partitionPath)
		if err != nil {
			return fmt.Errorf("failed to create new writer: %w", err)
		}
	}

	if err := pw.Write(record); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

func (p *ParquetOutput) cleanup() {
	fullPath := filepath.Join(p.basePath, p.folder)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return
	}
	err := filepath.Walk(fullPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".parquet" {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.log.Warnf("error cleaning up parquet files: %v", err)
	}
}

func (p *ParquetOutput) createNewWriter(writerKey, topic, partitionPath string) (*writer.ParquetWriter, error) {
	var fw source.ParquetFile
	if p.cloudWriterFactory != nil {
		objectPath := filepath.ToSlash(filepath.Join(p.folder, topic, partitionPath, "data.parquet"))
		cloudWriter, err := p.cloudWriterFactory.NewWriter(p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = NewCloudParquetFile(cloudWriter)
	} else {
		fullPath := filepath.Join(p.basePath, p.folder, topic, partitionPath)
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return nil, err
		}
		var err error
		fw, err = local.NewLocalFileWriter(filepath.Join(fullPath, "data.parquet"))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	sc, err := GetSchema(topic)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, nil, 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	pw.SchemaHandler = sc
	pw.Footer.Schema = append(pw.Footer.Schema, sc.SchemaElements...)

	p.writers[writerKey] = pw
	p.files[writerKey] = fw
	return pw, nil
}

func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for key, pw := range p.writers {
		if err := pw.WriteStop(); err != nil {
			lastErr = err
			p.log.Errorf("error closing writer for key %s: %v", key, err)
		}
		if f, ok := p.files[key]; ok {
			if err := f.Close(); err != nil {
				lastErr = err
				p.log.Errorf("error closing file for key %s: %v", key, err)
			}
		}
	}
	return lastErr
}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	if _, err := fmt.Fprintf(c.out, "[%s] %s\n", topic, msg); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
