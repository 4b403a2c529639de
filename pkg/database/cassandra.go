package database

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// NewCassandraSession connects to the cluster, creates the keyspace if needed and returns
// a session bound to it.
func NewCassandraSession(hosts []string, keyspace string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = "system"
	cluster.Timeout = 10 * time.Second
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("cassandra connect: %w", err)
	}

	err = session.Query(fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {'class' : 'SimpleStrategy', 'replication_factor' : 1}`, keyspace)).Exec()
	session.Close()
	if err != nil {
		return nil, fmt.Errorf("create keyspace %s: %w", keyspace, err)
	}

	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.SerialConsistency = gocql.LocalSerial
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("cassandra connect %s: %w", keyspace, err)
	}
	return session, nil
}
