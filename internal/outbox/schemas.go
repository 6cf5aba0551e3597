package outbox

const participationJoinedSchema = `{
  "type": "object",
  "title": "ParticipationJoined",
  "properties": {
    "record_id": {"type": "string"},
    "user_id": {"type": "string"},
    "activity_id": {"type": "string"},
    "activity_title": {"type": "string"},
    "joined_at": {"type": "string", "format": "date-time"},
    "status": {"type": "string", "enum": ["joined", "completed"]},
    "version": {"type": "string"}
  },
  "required": ["record_id", "user_id", "activity_id", "activity_title", "joined_at", "status", "version"],
  "additionalProperties": false
}`
