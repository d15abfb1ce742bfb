package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() map[string]interface{} {
	return map[string]interface{}{
		"map":      "Arabia",
		"duration": "0:27:59.757000",
		"players": []interface{}{
			map[string]interface{}{
				"name": "You",
				"ages": map[string]interface{}{
					"Feudal": map[string]interface{}{"click_time": "9:45", "uptime": 130.0},
					"Castle": map[string]interface{}{"click_time": nil},
				},
			},
		},
		"actions": []interface{}{
			map[string]interface{}{"timestamp": "0:00:10.500", "type": "queue", "unit": "Villager"},
			map[string]interface{}{"time": "soon", "type": "queue", "unit": "Archer"},
			map[string]interface{}{"t_sec": 12.9, "note": "12:00"},
		},
		"tc_idle": []map[string]interface{}{
			{"start": "1:00", "end": "1:30"},
		},
	}
}

func TestNormalizeTimeFields(t *testing.T) {
	out := NormalizeTimeFields(sampleRecord()).(map[string]interface{})

	assert.Equal(t, 1679, out["duration"])
	assert.Equal(t, "Arabia", out["map"])

	player := out["players"].([]interface{})[0].(map[string]interface{})
	ages := player["ages"].(map[string]interface{})
	assert.Equal(t, 585, ages["Feudal"].(map[string]interface{})["click_time"])
	assert.Equal(t, 130, ages["Feudal"].(map[string]interface{})["uptime"])
	assert.Nil(t, ages["Castle"].(map[string]interface{})["click_time"])

	actions := out["actions"].([]interface{})
	assert.Equal(t, 10, actions[0].(map[string]interface{})["timestamp"])
	// unparseable values are kept rather than aborting the pass
	assert.Equal(t, "soon", actions[1].(map[string]interface{})["time"])
	assert.Equal(t, 12, actions[2].(map[string]interface{})["t_sec"])
	// only time-like keys are touched
	assert.Equal(t, "12:00", actions[2].(map[string]interface{})["note"])

	idle := out["tc_idle"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 60, idle["start"])
	assert.Equal(t, 90, idle["end"])
}

func TestNormalizeTimeFields_DoesNotMutateInput(t *testing.T) {
	in := sampleRecord()
	_ = NormalizeTimeFields(in)

	assert.Equal(t, "0:27:59.757000", in["duration"])
	action := in["actions"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "0:00:10.500", action["timestamp"])
}

func TestNormalizeTimeFields_Idempotent(t *testing.T) {
	once := NormalizeTimeFields(sampleRecord())
	twice := NormalizeTimeFields(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeTimeFields_TimeKeysHoldSeconds(t *testing.T) {
	record := map[string]interface{}{
		"duration": 300.7,
		"nested": []interface{}{
			map[string]interface{}{"start": "0:10", "end": "0:20", "response_time": nil},
			map[string]interface{}{"threat_switch_time": "1:00:00", "click_time": "  "},
		},
	}

	var check func(node interface{})
	check = func(node interface{}) {
		switch n := node.(type) {
		case []interface{}:
			for _, item := range n {
				check(item)
			}
		case map[string]interface{}:
			for key, value := range n {
				if IsTimeKey(key) && value != nil {
					seconds, ok := value.(int)
					require.True(t, ok, "key %s holds %#v", key, value)
					assert.GreaterOrEqual(t, seconds, 0)
				}
				check(value)
			}
		}
	}
	check(NormalizeTimeFields(record))
}

func TestNormalizeTimeFields_NonStringKeys(t *testing.T) {
	in := map[interface{}]interface{}{
		"time": "1:00",
		1:      "1:00",
		"sub":  map[interface{}]interface{}{"end": "0:05"},
	}

	out := NormalizeTimeFields(in).(map[interface{}]interface{})
	assert.Equal(t, 60, out["time"])
	assert.Equal(t, "1:00", out[1])
	assert.Equal(t, 5, out["sub"].(map[interface{}]interface{})["end"])
}

func TestNormalizeTimeFields_Scalars(t *testing.T) {
	assert.Equal(t, "27:59", NormalizeTimeFields("27:59"))
	assert.Equal(t, 3.5, NormalizeTimeFields(3.5))
	assert.Nil(t, NormalizeTimeFields(nil))
}

func TestNormalizeTimeFieldsReport(t *testing.T) {
	_, report := NormalizeTimeFieldsReport(sampleRecord())

	assert.Equal(t, []string{"actions[1].time"}, report.Skipped)
	// duration, click_time x2, uptime, timestamp, t_sec, start, end
	assert.Equal(t, 8, report.Coerced)
}

func TestIsTimeKey(t *testing.T) {
	for _, key := range []string{
		"time", "t", "t_sec", "timestamp", "duration", "uptime",
		"click_time", "start", "end", "response_time", "threat_switch_time",
	} {
		assert.True(t, IsTimeKey(key), key)
	}
	assert.False(t, IsTimeKey("Time"))
	assert.False(t, IsTimeKey("name"))
}
