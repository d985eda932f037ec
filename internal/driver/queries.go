package driver

// IndexQueries are run once before loading.
var IndexQueries = []string{
	"CREATE INDEX ON :Concept(cui);",
	"CREATE INDEX ON :Concept;",
}

// The Merge* queries take $rows, a list of maps, and are run once per batch.
const (
	MergeConceptNamesQuery = `
		UNWIND $rows AS row
		MERGE (c:Concept {cui: row.cui})
		SET c.names = CASE
			WHEN row.value IN coalesce(c.names, []) THEN c.names
			ELSE coalesce(c.names, []) + [row.value]
		END
	`

	MergeConceptTypesQuery = `
		UNWIND $rows AS row
		MERGE (c:Concept {cui: row.cui})
		SET c.types = CASE
			WHEN row.value IN coalesce(c.types, []) THEN c.types
			ELSE coalesce(c.types, []) + [row.value]
		END
	`

	MergeGoldRelationsQuery = `
		UNWIND $rows AS row
		MERGE (s:Concept {cui: row.subject})
		MERGE (o:Concept {cui: row.object})
		MERGE (s)-[r:RELATED {rui: row.rui}]->(o)
		SET r.predicate = row.predicate,
			r.source = row.source
	`

	MergeSilverRelationsQuery = `
		UNWIND $rows AS row
		MERGE (s:Concept {cui: row.subject})
		MERGE (o:Concept {cui: row.object})
		MERGE (s)-[r:PREDICTED {predicate: row.predicate}]->(o)
	`

	GetConceptQuery = `
		MATCH (c:Concept {cui: $cui})
		RETURN c.cui AS cui, c.names AS names, c.types AS types
	`

	CountGraphQuery = `
		MATCH (c:Concept)
		OPTIONAL MATCH (c)-[r]->()
		RETURN count(DISTINCT c) AS concepts, count(r) AS relations
	`
)
