package output

import (
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/xitongsys/parquet-go/schema"
)

const TopicDeliveries = "deliveries"

// GetSchema returns the parquet schema of a topic's records.
func GetSchema(topic string) (*schema.SchemaHandler, error) {
	var sh *schema.SchemaHandler
	var err error

	switch topic {
	case TopicDeliveries:
		sh, err = schema.NewSchemaHandlerFromStruct(new(models.DeliveryRecord))
	default:
		return nil, fmt.Errorf("unknown topic: %s", topic)
	}

	if err != nil {
		return nil, fmt.Errorf("error creating schema for %s: %w", topic, err)
	}
	return sh, nil
}

// decodeRecord turns a message back into the typed record of its topic.
func decodeRecord(topic string, msg []byte) (interface{}, error) {
	switch topic {
	case TopicDeliveries:
		var rec models.DeliveryRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, fmt.Errorf("unknown topic: %s", topic)
}
