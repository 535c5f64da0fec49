package etl

import (
	"strings"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

// NoReplicationKeysReason is the forced-replication-method reason of tables
// without a timestamp column.
const NoReplicationKeysReason = "No replication keys found from table"

// BuildMetadata computes the stream and column metadata discovery publishes.
func BuildMetadata(database string, table domain.TableSpec, cols []domain.ColumnSpec, keyProperties []string) domain.Metadata {
	md := domain.NewMetadata()
	md.Stream = domain.StreamMetadata{
		Selected:          domain.Bool(true),
		SelectedByDefault: false,
		IsView:            table.IsView,
		KeyProperties:     keyProperties,
		SchemaName:        table.Name,
		DatabaseName:      database,
	}

	var validKeys []string
	for _, c := range cols {
		if IsReplicationKeyType(c.Type) {
			validKeys = append(validKeys, c.Name)
		}
		inclusion := MapType(c.Type, c.Nullable).Inclusion
		md.SetColumn(c.Name, &domain.ColumnMetadata{
			Selected:          domain.Bool(true),
			SelectedByDefault: inclusion != domain.InclusionUnsupported,
			SQLDatatype:       strings.ToLower(c.Type),
			Inclusion:         inclusion,
		})
	}

	if len(validKeys) > 0 {
		md.Stream.ValidReplicationKeys = validKeys
	} else {
		md.Stream.Forced = &domain.ForcedReplicationMethod{
			Method: domain.ReplicationFullTable,
			Reason: NoReplicationKeysReason,
		}
	}
	return md
}
