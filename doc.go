/*
Package idxcompact compacts one or more on-disk full-text-index databases
into a single output database, renumbering document identifiers into
disjoint ranges and removing dead space along the way.

The core is an external-memory, key-ordered N-way merge across several
heterogeneous tables (postings, value statistics, value-stream chunks,
per-document data, spelling dictionaries, synonyms, positions), each with
its own merge semantics, written through an append-only SSTable format.

Data Structure Documentation

SSTable

An SSTable is a sequence of prefix-compressed (key, value) records
followed by a sparse key index.

    Table layout:
    +----------+---------+----------+-------------+
    | record 1 |   ...   | record n | sparse index |
    +----------+---------+----------+--------------+

    First record:
    +-----------------+-----+---------------------+-------+
    | key length (1B) | key | value length+flag    | value |
    +-----------------+-----+---------------------+-------+

    Every later record ("reuse" bytes shared with the previous key, 0 or more):
    +------------+-------------+--------+---------------------+-------+
    | reuse (1B) | suffix (1B) | suffix | value length+flag   | value |
    +------------+-------------+--------+---------------------+-------+

    value length+flag is a varint of (len(value)<<1 | compressed).

Sparse index

One entry per INDEXBLOCK (1024) bytes of table data, each entry
prefix-compressed against the previous index key:

    +------------+-------------+--------+----------------------+
    | reuse (1B) | suffix (1B) | suffix | offset (varint)      |
    +------------+-------------+--------+----------------------+
*/
package idxcompact
