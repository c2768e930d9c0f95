package mcpserver

// SubmissionContract describes what add_hash accepts.
const SubmissionContract = `# hashdb Submission Contract

Every record added to hashdb has a hash, a name and a list of tags.

## Fields

- **hash** (required): a base58 CIDv0 content hash, "Qm" followed by 44 or 45
  characters from the base58 alphabet (no 0, O, I or l).
- **name** (required): 1 to 100 characters. Usually the file name.
- **tags** (optional): comma separated, at most 10. Every character that is
  not an ASCII letter or digit is removed; tags that end up empty are
  dropped; a tag longer than 20 characters is rejected; duplicates are
  removed keeping the first.

## Pages

Pages hold 10 records, newest first. Page 0 is the most recent. A page
with fewer than 10 records is the last one. Tag filtering counts only
records with the tag, also newest first.

## Example

hash: QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG
name: hello.txt
tags: greeting, text
`
