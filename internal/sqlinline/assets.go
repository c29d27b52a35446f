package sqlinline

const QInsertGeneratedAsset = `--sql 4d81f2a6-307e-4c59-b8d4-6e9a0c5f7b21
insert into generated_assets (
  id,
  account_id,
  storage_key,
  mime,
  bytes,
  aspect_ratio,
  prompt,
  credit_cost,
  properties,
  created_at
) values (
  $1::uuid,
  $2::uuid,
  $3::text,
  $4::text,
  $5::bigint,
  nullif($6::text, ''),
  $7::text,
  $8::int,
  coalesce($9::jsonb, '{}'::jsonb),
  now()
) returning id;
`

const QSelectGeneratedAssetByID = `--sql a05c9e13-6f42-4d87-91b0-3c8d7e2f5a64
select id, account_id, storage_key, mime, bytes, coalesce(aspect_ratio, ''), prompt, credit_cost, created_at
from generated_assets
where id = $1::uuid
limit 1;
`

const QListGeneratedAssetsByAccount = `--sql c7e30b58-19d6-4fa2-8c41-5b0f9d3e6a72
select id, storage_key, mime, bytes, coalesce(aspect_ratio, ''), credit_cost, created_at
from generated_assets
where account_id = $1::uuid
order by created_at desc
limit $2::int offset $3::int;
`
